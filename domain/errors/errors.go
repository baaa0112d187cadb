// Package errors provides domain-specific error types for the SDK.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	"fmt"
)

// SerializationError reports a host call request that could not be encoded.
type SerializationError struct {
	Err     error
	Service string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("bad serialization of %s input data: %v", e.Service, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// DeserializationError reports a host response that was not a valid result envelope.
type DeserializationError struct {
	Err     error
	Service string
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("bad deserialization of %s output data: %v", e.Service, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// HostError carries the failure message of an ok=false envelope.
// Error returns Message verbatim.
type HostError struct {
	Service string
	Message string
}

func (e *HostError) Error() string {
	return e.Message
}

// BoundaryError is an unrecoverable failure at the guest/host boundary. It is reported
// through the instance abort path and never handed to business code.
type BoundaryError struct {
	Err   error
	Stage string
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("boundary failure during %s: %v", e.Stage, e.Err)
}

func (e *BoundaryError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SchemaError represents a schema generation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
