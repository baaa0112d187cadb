package validation_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basm-dev/basm-sdk-go/application/validation"
	"github.com/basm-dev/basm-sdk-go/domain/entities"
)

func testManifest() entities.Manifest {
	return entities.Manifest{
		SDKVersion: "0.1.0",
		Functions: []entities.FunctionManifest{
			{
				Name:         "greet",
				InputSchema:  json.RawMessage(`{"type":"object","required":["name"],"properties":{"name":{"type":"string","minLength":1}}}`),
				SecretSchema: json.RawMessage(`{"type":"object","properties":{"token":{"type":"string"}}}`),
			},
			{Name: "free"},
		},
	}
}

func TestSchemaValidator_Validate(t *testing.T) {
	v, err := validation.NewSchemaValidator(testManifest())
	require.NoError(t, err)

	tests := []struct {
		name       string
		function   string
		input      string
		secret     string
		wantBuffer string
	}{
		{name: "valid", function: "greet", input: `{"name":"bob"}`, secret: `{"token":"t"}`},
		{name: "missing required field", function: "greet", input: `{}`, secret: `{}`, wantBuffer: validation.InputBuffer},
		{name: "wrong secret type", function: "greet", input: `{"name":"bob"}`, secret: `{"token":7}`, wantBuffer: validation.SecretBuffer},
		{name: "malformed input", function: "greet", input: `{"name":`, secret: `{}`, wantBuffer: validation.InputBuffer},
		{name: "empty input is null", function: "greet", input: ``, secret: `{}`, wantBuffer: validation.InputBuffer},
		{name: "no schema", function: "free", input: `anything`},
		{name: "unknown function", function: "missing", input: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.function, []byte(tt.input), []byte(tt.secret))
			if tt.wantBuffer == "" {
				assert.NoError(t, err)
				return
			}
			var inputErr *validation.InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.function, inputErr.Function)
			assert.Equal(t, tt.wantBuffer, inputErr.Buffer)
		})
	}
}

func TestNewSchemaValidator_InvalidSchema(t *testing.T) {
	manifest := entities.Manifest{Functions: []entities.FunctionManifest{
		{Name: "broken", InputSchema: json.RawMessage(`{"type":12}`)},
	}}
	_, err := validation.NewSchemaValidator(manifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `input schema of "broken"`)
}

func TestInputError(t *testing.T) {
	err := &validation.InputError{Function: "greet", Buffer: "input", Err: assert.AnError}
	assert.Equal(t, `input of "greet" does not match its schema: `+assert.AnError.Error(), err.Error())
	assert.ErrorIs(t, err, assert.AnError)
}
