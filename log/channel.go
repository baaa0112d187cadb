// Package log bridges guest logging to the host's two log channels: the attestation log
// (bufferLog) and the debug console (consoleLog).
//
// Every write is flushed on the call that produced it. Nothing is buffered across
// calls, so a guest that aborts never loses a line it already logged.
package log

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/basm-dev/basm-sdk-go/memory"
)

// Channel names.
const (
	AttestationChannel = "attestation"
	ConsoleChannel     = "console"
)

// Sink receives a flushed buffer as an (offset, length) pair in shared memory.
type Sink func(offset, length uint32)

// Channel accumulates bytes and hands them to a Sink on Flush.
type Channel struct {
	arena memory.Arena
	sink  Sink
	name  string
	buf   bytes.Buffer
	mu    sync.Mutex
}

// NewChannel creates a channel leaking its buffers into arena and delivering them to sink.
func NewChannel(name string, arena memory.Arena, sink Sink) *Channel {
	return &Channel{name: name, arena: arena, sink: sink}
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// Write implements io.Writer. Data stays pending until Flush.
func (c *Channel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// Flush leaks the pending bytes, passes their descriptor to the sink and resets the
// buffer. The buffer is reset even when the leak fails.
func (c *Channel) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

// Printf formats a line, appends a newline and flushes it.
func (c *Channel) Printf(format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(&c.buf, format, args...)
	c.buf.WriteByte('\n')
	return c.flushLocked()
}

func (c *Channel) flushLocked() error {
	defer c.buf.Reset()

	ptr, err := c.arena.Leak(c.buf.Bytes())
	if err != nil {
		return fmt.Errorf("log: flush %s channel: %w", c.name, err)
	}
	c.sink(ptr.Offset(), ptr.Length())
	return nil
}
