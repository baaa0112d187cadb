// Package ports defines interfaces for infrastructure operations.
// Business functions depend on these abstractions; the host call client and the
// reference host implement them.
package ports
