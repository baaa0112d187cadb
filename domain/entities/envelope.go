package entities

// ResultEnvelope is the JSON shape every host service answers with:
// {"ok":bool,"error":string,"value":T}.
//
// When OK is false, Value is not interpreted. When OK is true, Error is not interpreted.
type ResultEnvelope[T any] struct {
	Value T      `json:"value"`
	Error string `json:"error"`
	OK    bool   `json:"ok"`
}

// Succeed wraps a value in a successful envelope.
func Succeed[T any](value T) ResultEnvelope[T] {
	return ResultEnvelope[T]{OK: true, Value: value}
}

// Fail builds a failed envelope carrying message.
func Fail[T any](message string) ResultEnvelope[T] {
	return ResultEnvelope[T]{Error: message}
}
