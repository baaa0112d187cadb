package entrypoint

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Decoder turns boundary text into a value.
type Decoder[T any] func(text string) (T, error)

// Encoder turns a value into boundary text.
type Encoder[T any] func(value T) (string, error)

// JSONDecoder decodes text as JSON. It is the default for inputs and secrets.
func JSONDecoder[T any](text string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

// JSONEncoder encodes a value as JSON. It is the default for outputs.
func JSONEncoder[T any](value T) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode %T: %w", value, err)
	}
	return string(data), nil
}

// TextDecoder passes text through unchanged.
func TextDecoder(text string) (string, error) {
	return text, nil
}

// TextEncoder passes text through unchanged.
func TextEncoder(value string) (string, error) {
	return value, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidatingDecoder wraps dec so that decoded structs are checked against their
// `validate` tags. Non-struct values pass through unchecked.
func ValidatingDecoder[T any](dec Decoder[T]) Decoder[T] {
	return func(text string) (T, error) {
		v, err := dec(text)
		if err != nil {
			return v, err
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return v, nil
			}
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return v, nil
		}
		if err := validate.Struct(v); err != nil {
			return v, fmt.Errorf("validate %T: %w", v, err)
		}
		return v, nil
	}
}
