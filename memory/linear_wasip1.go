//go:build wasip1

package memory

import (
	"fmt"
	"sync"
	"unsafe"
)

// LinearArena allocates from the instance's own linear memory. Every buffer is pinned in
// a table so the Go GC never collects or moves it while the host may still read it.
type LinearArena struct {
	pinned map[uint32][]byte
	cfg    arenaConfig
	ledger ledger
	mu     sync.Mutex
}

// NewLinearArena creates an arena over linear memory.
func NewLinearArena(opts ...Option) *LinearArena {
	cfg := defaultArenaConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LinearArena{
		pinned: make(map[uint32][]byte),
		cfg:    cfg,
	}
}

// Leak implements Arena. An empty payload yields the null descriptor.
func (a *LinearArena) Leak(data []byte) (FatPointer, error) {
	if uint64(len(data)) > MaxLength {
		return 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}
	if len(data) == 0 {
		return 0, nil
	}
	ptr, err := a.allocate(uint32(len(data)))
	if err != nil {
		return 0, err
	}
	copy(linearSlice(ptr, uint32(len(data))), data)
	return NewFatPointer(ptr, uint32(len(data))), nil
}

// Read implements Arena.
func (a *LinearArena) Read(ptr FatPointer) []byte {
	if ptr.Length() == 0 {
		return []byte{}
	}
	data := make([]byte, ptr.Length())
	copy(data, linearSlice(ptr.Offset(), ptr.Length()))
	return data
}

// Stats returns the number of leaked buffers and their total size.
func (a *LinearArena) Stats() (count, bytes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.count, a.ledger.total
}

func (a *LinearArena) allocate(size uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ledger.reserve(int(size), a.cfg.maxTotal); err != nil {
		return 0, err
	}
	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
	a.pinned[ptr] = buf
	return ptr, nil
}

// linearSlice views size bytes of linear memory starting at ptr.
func linearSlice(ptr, size uint32) []byte {
	//nolint:gosec // G103: wasm32 offsets are addresses in the instance's own memory
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), size)
}
