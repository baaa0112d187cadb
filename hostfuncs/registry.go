package hostfuncs

import (
	"context"
	"fmt"
	"sort"
)

// HandlerRegistry is an immutable collection of named host services and log sinks.
// Once created via NewRegistry, entries cannot be added or removed.
// This ensures thread safety and lock-free lookups during execution.
type HandlerRegistry struct {
	handlers  map[string]ByteHandler
	sinks     map[string]LogSink
	names     []string // sorted for consistent iteration
	sinkNames []string
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	handlers   map[string]ByteHandler
	sinks      map[string]LogSink
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable HandlerRegistry with the given options.
// Returns an error if any name is registered twice.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithBundle(DefaultBundle(logger, store)),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{
		handlers: make(map[string]ByteHandler),
		sinks:    make(map[string]LogSink),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0] // Return first error
	}

	// Apply middleware chain to all handlers (FIFO order)
	wrappedHandlers := make(map[string]ByteHandler, len(b.handlers))
	for name, handler := range b.handlers {
		wrapped := handler
		// Apply middleware in reverse order so first middleware wraps outermost
		for i := len(b.middleware) - 1; i >= 0; i-- {
			wrapped = b.middleware[i](wrapped)
		}
		wrappedHandlers[name] = wrapped
	}

	return &HandlerRegistry{
		handlers:  wrappedHandlers,
		sinks:     b.sinks,
		names:     sortedKeys(b.handlers),
		sinkNames: sortedKeys(b.sinks),
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke dispatches a host service call by name.
// Returns the envelope bytes, or an ok=false envelope if the service is not found.
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return NotFound(name), nil
	}

	// Wrap context with function name for middleware access
	return handler(NewHostContext(ctx, name), payload)
}

// Emit delivers a log buffer to the sink registered under name. Unknown sinks drop
// the line and report false. A panicking sink is recovered and reported as an error.
func (r *HandlerRegistry) Emit(ctx context.Context, name string, line []byte) (delivered bool, err error) {
	sink, ok := r.sinks[name]
	if !ok {
		return false, nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("log sink %q panicked: %v", name, p)
		}
	}()
	sink(NewHostContext(ctx, name), line)
	return true, nil
}

// Has returns true if a service with the given name is registered.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns a sorted list of all registered service names.
func (r *HandlerRegistry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

// SinkNames returns a sorted list of all registered log sink names.
func (r *HandlerRegistry) SinkNames() []string {
	result := make([]string, len(r.sinkNames))
	copy(result, r.sinkNames)
	return result
}

// checkName rejects empty names and names already used by a service or a sink.
func (b *registryBuilder) checkName(name string) error {
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	_, isHandler := b.handlers[name]
	_, isSink := b.sinks[name]
	if isHandler || isSink {
		return fmt.Errorf("duplicate handler name: %q", name)
	}
	return nil
}

func (b *registryBuilder) addHandler(name string, handler ByteHandler) {
	if err := b.checkName(name); err != nil {
		b.errors = append(b.errors, err)
		return
	}
	b.handlers[name] = handler
}

func (b *registryBuilder) addSink(name string, sink LogSink) {
	if err := b.checkName(name); err != nil {
		b.errors = append(b.errors, err)
		return
	}
	b.sinks[name] = sink
}

// WithByteHandler registers a raw ByteHandler with the given name.
// Use WithService for type-safe registration with envelope handling.
func WithByteHandler(name string, handler ByteHandler) RegistryOption {
	return func(b *registryBuilder) {
		b.addHandler(name, handler)
	}
}

// WithService registers a typed host service wrapped with NewEnvelopeHandler.
//
// Example usage:
//
//	WithService("custom", func(ctx context.Context, req MyRequest) (MyResponse, error) {
//	    return MyResponse{Result: req.Input}, nil
//	})
func WithService[Req any, Resp any](name string, fn Service[Req, Resp]) RegistryOption {
	return func(b *registryBuilder) {
		b.addHandler(name, NewEnvelopeHandler(fn))
	}
}

// WithLogSink registers a log sink with the given name.
func WithLogSink(name string, sink LogSink) RegistryOption {
	return func(b *registryBuilder) {
		b.addSink(name, sink)
	}
}

// WithMiddleware adds middleware to the registry. Middleware wraps services only.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
