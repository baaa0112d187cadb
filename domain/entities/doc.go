// Package entities defines the payloads that cross the guest/host boundary.
// These types serve dual purpose: domain entities AND JSON wire format DTOs.
package entities
