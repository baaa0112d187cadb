package hostfuncs

import (
	"bytes"
)

// DefaultMaxRequestSize limits the size of a request buffer read from guest memory (1MB).
const DefaultMaxRequestSize = 1 * 1024 * 1024

// BoundedBuffer collects at most limit bytes and drops the rest.
type BoundedBuffer struct {
	buffer    bytes.Buffer
	limit     int
	Truncated bool
}

// NewBoundedBuffer creates a new BoundedBuffer with the specified limit.
func NewBoundedBuffer(limit int) *BoundedBuffer {
	return &BoundedBuffer{
		limit: limit,
	}
}

// Write implements io.Writer. It always reports len(p) so io.Copy keeps draining the
// source; Truncated records that bytes were dropped.
func (b *BoundedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buffer.Len()
	if remaining <= 0 {
		b.Truncated = b.Truncated || len(p) > 0
		return len(p), nil
	}
	if len(p) > remaining {
		b.Truncated = true
		b.buffer.Write(p[:remaining])
		return len(p), nil
	}
	b.buffer.Write(p)
	return len(p), nil
}

func (b *BoundedBuffer) String() string {
	return b.buffer.String()
}

func (b *BoundedBuffer) Bytes() []byte {
	return b.buffer.Bytes()
}

func (b *BoundedBuffer) Len() int {
	return b.buffer.Len()
}

// Reset empties the buffer and clears Truncated.
func (b *BoundedBuffer) Reset() {
	b.buffer.Reset()
	b.Truncated = false
}
