package hostfuncs

import (
	"context"
)

// HostContext is the context a service or sink runs under. It carries the name of
// the host function the guest invoked.
type HostContext interface {
	context.Context

	// FunctionName returns the name of the host function being invoked.
	FunctionName() string
}

type hostContext struct {
	context.Context
	funcName string
}

// NewHostContext creates a new HostContext wrapping the given context.
func NewHostContext(ctx context.Context, funcName string) HostContext {
	return &hostContext{Context: ctx, funcName: funcName}
}

func (c *hostContext) FunctionName() string {
	return c.funcName
}

type invocationKey struct{}

// WithInvocationID tags ctx with the ID of the guest invocation it serves.
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

// InvocationID returns the invocation ID stored in ctx, or "".
func InvocationID(ctx context.Context) string {
	id, _ := ctx.Value(invocationKey{}).(string)
	return id
}
