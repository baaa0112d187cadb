package wazero

import (
	"context"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/basm-dev/basm-sdk-go/hostfuncs"
)

// InvocationFor returns the invocation ID carried by ctx, falling back to the name of
// the guest module instance.
func InvocationFor(ctx context.Context, mod api.Module) string {
	if id := hostfuncs.InvocationID(ctx); id != "" {
		return id
	}
	return mod.Name()
}

func withInvocation(ctx context.Context, mod api.Module) context.Context {
	return hostfuncs.WithInvocationID(ctx, InvocationFor(ctx, mod))
}

// ConsoleCapture remembers the last debug-console line of one invocation.
type ConsoleCapture struct {
	last string
	mu   sync.Mutex
}

type consoleCaptureKey struct{}

// WithConsoleCapture returns a context whose consoleLog lines are recorded in the
// returned capture, in addition to reaching the registered sink.
func WithConsoleCapture(ctx context.Context) (context.Context, *ConsoleCapture) {
	c := &ConsoleCapture{}
	return context.WithValue(ctx, consoleCaptureKey{}, c), c
}

// Last returns the most recent console line without its trailing newline.
func (c *ConsoleCapture) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func captureConsole(ctx context.Context, line []byte) {
	c, ok := ctx.Value(consoleCaptureKey{}).(*ConsoleCapture)
	if !ok {
		return
	}
	c.mu.Lock()
	c.last = strings.TrimSuffix(string(line), "\n")
	c.mu.Unlock()
}
