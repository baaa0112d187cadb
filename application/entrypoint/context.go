package entrypoint

// Context is the execution context handed to a business function: the decoded input
// and secrets of one invocation.
type Context[I any, S any] struct {
	Input   I `json:"input"`
	Secrets S `json:"secrets"`
}

// Func is a business function.
type Func[I any, S any, O any] func(ctx Context[I, S]) O
