package memory

import (
	"fmt"
	"sync"
)

// DefaultMaxTotalAllocations bounds the bytes an arena will leak over its lifetime.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

// Arena is the shared memory allocator seen by the guest.
//
// Leak allocates exactly len(data) bytes, copies data in and returns the descriptor. The
// buffer is never moved or freed. Both ErrPayloadTooLarge and ErrOutOfMemory mean the
// boundary contract itself is broken; callers must treat them as unrecoverable.
//
// Read copies the described bytes out into a buffer owned by the caller. The pointer is
// trusted: it must describe memory this instance owns and that is still valid. Nothing in
// the guest can check that.
type Arena interface {
	Leak(data []byte) (FatPointer, error)
	Read(ptr FatPointer) []byte
}

// Option configures an arena.
type Option func(*arenaConfig)

type arenaConfig struct {
	maxTotal int
}

func defaultArenaConfig() arenaConfig {
	return arenaConfig{maxTotal: DefaultMaxTotalAllocations}
}

// WithMaxTotalAllocations caps the bytes an arena may leak. Non-positive values are ignored.
func WithMaxTotalAllocations(limit int) Option {
	return func(c *arenaConfig) {
		if limit > 0 {
			c.maxTotal = limit
		}
	}
}

// ledger tracks leaked allocations for the limit check and Stats.
type ledger struct {
	count int
	total int
}

func (l *ledger) reserve(size int, limit int) error {
	if l.total+size > limit {
		return fmt.Errorf("%w: requested %d bytes, %d in use, limit %d",
			ErrOutOfMemory, size, l.total, limit)
	}
	l.count++
	l.total += size
	return nil
}

// simulatedBase keeps the first simulated buffer off offset zero, which is the null descriptor.
const simulatedBase = 8

// SimulatedArena is an Arena over an ordinary Go byte slice. Offsets are handed out
// sequentially from a non-zero base, so descriptors look like real linear-memory
// descriptors. It stands in for linear memory in native builds and lets a simulated host
// read and place buffers the same way a real host would.
type SimulatedArena struct {
	region []byte
	cfg    arenaConfig
	ledger ledger
	mu     sync.Mutex
}

// NewSimulatedArena creates an empty simulated arena.
func NewSimulatedArena(opts ...Option) *SimulatedArena {
	cfg := defaultArenaConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &SimulatedArena{cfg: cfg}
}

// Leak implements Arena. An empty payload yields the null descriptor.
func (a *SimulatedArena) Leak(data []byte) (FatPointer, error) {
	if uint64(len(data)) > MaxLength {
		return 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}
	if len(data) == 0 {
		return 0, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	offset := uint64(simulatedBase) + uint64(len(a.region))
	if offset+uint64(len(data)) > MaxLength {
		return 0, fmt.Errorf("%w: simulated region exhausted", ErrOutOfMemory)
	}
	if err := a.ledger.reserve(len(data), a.cfg.maxTotal); err != nil {
		return 0, err
	}
	a.region = append(a.region, data...)
	return NewFatPointer(uint32(offset), uint32(len(data))), nil
}

// Read implements Arena. A range outside the region panics, the way an out-of-bounds
// access traps a real instance.
func (a *SimulatedArena) Read(ptr FatPointer) []byte {
	if ptr.Length() == 0 {
		return []byte{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	start := int64(ptr.Offset()) - simulatedBase
	end := start + int64(ptr.Length())
	if start < 0 || end > int64(len(a.region)) {
		panic(fmt.Sprintf("memory: read of %s outside simulated region of %d bytes", ptr, len(a.region)))
	}
	data := make([]byte, ptr.Length())
	copy(data, a.region[start:end])
	return data
}

// Stats returns the number of leaked buffers and their total size.
func (a *SimulatedArena) Stats() (count, bytes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.count, a.ledger.total
}
