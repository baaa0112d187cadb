// Package validation checks invocation buffers against the JSON schemas a guest
// publishes in its manifest.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
)

// Buffer names reported by InputError.
const (
	InputBuffer  = "input"
	SecretBuffer = "secret"
)

// InputError reports an invocation buffer that does not satisfy its schema.
type InputError struct {
	Function string
	Buffer   string
	Err      error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s of %q does not match its schema: %v", e.Buffer, e.Function, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

type functionSchemas struct {
	input  *jsonschema.Schema
	secret *jsonschema.Schema
}

// SchemaValidator validates input and secret buffers against compiled manifest
// schemas. Functions without a schema accept anything.
type SchemaValidator struct {
	functions map[string]functionSchemas
}

// NewSchemaValidator compiles every schema in manifest.
func NewSchemaValidator(manifest entities.Manifest) (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	v := &SchemaValidator{functions: make(map[string]functionSchemas, len(manifest.Functions))}

	compile := func(function, buffer string, raw json.RawMessage) (*jsonschema.Schema, error) {
		if len(raw) == 0 {
			return nil, nil
		}
		url := fmt.Sprintf("mem://manifest/%s/%s.json", function, buffer)
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("failed to add %s schema of %q: %w", buffer, function, err)
		}
		sch, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("invalid %s schema of %q: %w", buffer, function, err)
		}
		return sch, nil
	}

	for _, fn := range manifest.Functions {
		input, err := compile(fn.Name, InputBuffer, fn.InputSchema)
		if err != nil {
			return nil, err
		}
		secret, err := compile(fn.Name, SecretBuffer, fn.SecretSchema)
		if err != nil {
			return nil, err
		}
		v.functions[fn.Name] = functionSchemas{input: input, secret: secret}
	}
	return v, nil
}

// Validate checks input and secret for function. An empty buffer is validated as the
// JSON null value.
func (v *SchemaValidator) Validate(function string, input, secret []byte) error {
	schemas, ok := v.functions[function]
	if !ok {
		return nil
	}
	if err := validate(schemas.input, input); err != nil {
		return &InputError{Function: function, Buffer: InputBuffer, Err: err}
	}
	if err := validate(schemas.secret, secret); err != nil {
		return &InputError{Function: function, Buffer: SecretBuffer, Err: err}
	}
	return nil
}

func validate(sch *jsonschema.Schema, data []byte) error {
	if sch == nil {
		return nil
	}
	var doc any
	if len(data) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return fmt.Errorf("malformed JSON: %w", err)
		}
	}
	if err := sch.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return errors.New(ve.Error())
		}
		return err
	}
	return nil
}
