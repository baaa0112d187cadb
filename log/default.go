package log

import (
	"sync"

	"github.com/basm-dev/basm-sdk-go/infrastructure/wasm"
	"github.com/basm-dev/basm-sdk-go/memory"
)

var std struct {
	attestation *Channel
	console     *Channel
	mu          sync.Mutex
}

// SetDefault replaces the channels used by Logf and HostLogf.
func SetDefault(attestation, console *Channel) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.attestation = attestation
	std.console = console
}

// Attestation returns the default attestation channel.
func Attestation() *Channel {
	a, _ := defaults()
	return a
}

// Console returns the default debug-console channel.
func Console() *Channel {
	_, c := defaults()
	return c
}

func defaults() (*Channel, *Channel) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if std.attestation == nil {
		std.attestation = NewChannel(AttestationChannel, memory.Default(), wasm.BufferLog)
	}
	if std.console == nil {
		std.console = NewChannel(ConsoleChannel, memory.Default(), wasm.ConsoleLog)
	}
	return std.attestation, std.console
}

// Logf writes one line to the attestation log.
//
// A failed flush means the arena is exhausted. That is a boundary failure, so Logf
// panics and lets the entry point adapter abort the invocation.
func Logf(format string, args ...any) {
	if err := Attestation().Printf(format, args...); err != nil {
		panic(err)
	}
}

// HostLogf writes one line to the host's debug console. Failures panic like Logf.
func HostLogf(format string, args ...any) {
	if err := Console().Printf(format, args...); err != nil {
		panic(err)
	}
}
