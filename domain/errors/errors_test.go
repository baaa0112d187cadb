package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializationError(t *testing.T) {
	baseErr := fmt.Errorf("unsupported type: chan int")
	err := &SerializationError{Service: "httpRequest", Err: baseErr}

	assert.Equal(t, "bad serialization of httpRequest input data: unsupported type: chan int", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	var serErr *SerializationError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &serErr))
	assert.Equal(t, "httpRequest", serErr.Service)
}

func TestDeserializationError(t *testing.T) {
	baseErr := fmt.Errorf("unexpected end of JSON input")
	err := &DeserializationError{Service: "verifyAttestation", Err: baseErr}

	assert.Equal(t, "bad deserialization of verifyAttestation output data: unexpected end of JSON input", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	var desErr *DeserializationError
	require.True(t, errors.As(err, &desErr))
	assert.Equal(t, "verifyAttestation", desErr.Service)
}

func TestHostError_MessageIsVerbatim(t *testing.T) {
	err := &HostError{Service: "httpRequest", Message: "timeout"}

	assert.Equal(t, "timeout", err.Error())

	var hostErr *HostError
	require.True(t, errors.As(fmt.Errorf("call failed: %w", err), &hostErr))
	assert.Equal(t, "timeout", hostErr.Message)
}

func TestBoundaryError(t *testing.T) {
	baseErr := fmt.Errorf("allocation failed")
	err := &BoundaryError{Stage: "encode", Err: baseErr}

	assert.Equal(t, "boundary failure during encode: allocation failed", err.Error())
	assert.True(t, errors.Is(err, baseErr))
}

func TestConfigError(t *testing.T) {
	baseErr := fmt.Errorf("must be positive")
	err := &ConfigError{Field: "host.max_request_size", Err: baseErr}

	assert.Equal(t, "config validation failed for field 'host.max_request_size': must be positive", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	noField := &ConfigError{Err: baseErr}
	assert.Equal(t, "config validation failed: must be positive", noField.Error())
}

func TestSchemaError(t *testing.T) {
	baseErr := fmt.Errorf("unsupported kind")
	err := &SchemaError{Type: "main.Input", Err: baseErr}

	assert.Equal(t, "schema error for type main.Input: unsupported kind", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	noType := &SchemaError{Err: baseErr}
	assert.Equal(t, "schema error: unsupported kind", noType.Error())
}
