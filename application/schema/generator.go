// Package schema provides JSON schema generation for the input and secret types of
// exported functions.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/basm-dev/basm-sdk-go/domain/errors"
)

// GenerateSchema creates a JSON schema for the type of v.
func GenerateSchema(v any) ([]byte, error) {
	return ForType(reflect.TypeOf(v))
}

// ForType creates a JSON schema (Draft 2020-12) for t using invopop/jsonschema.
// Named struct types are expanded inline; other types are reflected as-is.
func ForType(t reflect.Type) (out []byte, err error) {
	if t == nil {
		return nil, &errors.SchemaError{Err: fmt.Errorf("nil type")}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &errors.SchemaError{Type: t.String(), Err: fmt.Errorf("reflect: %v", r)}
		}
	}()

	reflector := jsonschema.Reflector{
		// ExpandedStruct looks the root up by type name.
		ExpandedStruct: t.Kind() == reflect.Struct && t.Name() != "",
	}
	schema := reflector.ReflectFromType(t)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, &errors.SchemaError{Type: t.String(), Err: fmt.Errorf("failed to marshal schema: %w", err)}
	}

	return jsonBytes, nil
}
