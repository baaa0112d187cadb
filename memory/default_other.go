//go:build !wasip1

package memory

var defaultArena = NewSimulatedArena()

// Default returns the process-wide simulated arena used by native builds.
func Default() Arena {
	return defaultArena
}

// Stats reports the leaked buffers of the default arena.
func Stats() (count, bytes int) {
	return defaultArena.Stats()
}
