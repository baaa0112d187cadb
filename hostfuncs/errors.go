package hostfuncs

import (
	"encoding/json"
	"fmt"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
)

// Succeed encodes value in an ok=true envelope.
func Succeed[T any](value T) ([]byte, error) {
	data, err := json.Marshal(entities.Succeed(value))
	if err != nil {
		return Fail("failed to marshal response: " + err.Error()), nil
	}
	return data, nil
}

// Fail encodes message in an ok=false envelope.
func Fail(message string) []byte {
	// A string-only envelope always marshals.
	data, _ := json.Marshal(entities.Fail[any](message))
	return data
}

// InvalidRequest is the failure for a request the service could not decode.
func InvalidRequest(message string) []byte {
	return Fail("invalid request: " + message)
}

// NotFound is the failure for an unknown service name.
func NotFound(name string) []byte {
	return Fail("unknown host function: " + name)
}

// PanicFailure is the failure for a recovered panic.
func PanicFailure(panicValue any) []byte {
	var msg string
	switch v := panicValue.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = fmt.Sprintf("%v", v)
	}
	return Fail("panic: " + msg)
}
