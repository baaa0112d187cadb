//go:build wasip1

package memory

var defaultArena = NewLinearArena()

// Default returns the arena over this instance's linear memory.
func Default() Arena {
	return defaultArena
}

// Stats reports the leaked buffers of the default arena.
func Stats() (count, bytes int) {
	return defaultArena.Stats()
}

// allocate lets the host place inbound buffers (call inputs, host responses) into guest
// memory. Those buffers are permanent like every other leaked buffer. A zero return
// means the allocation failed.
//
//go:wasmexport allocate
func allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	ptr, err := defaultArena.allocate(size)
	if err != nil {
		return 0
	}
	return ptr
}
