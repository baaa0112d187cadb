// Package guest holds the per-instance state every boundary operation runs against:
// the arena, the host imports, the two log channels and the terminate function taken on
// an unrecoverable failure.
package guest

import (
	"os"
	"sync"

	"github.com/basm-dev/basm-sdk-go/infrastructure/wasm"
	"github.com/basm-dev/basm-sdk-go/log"
	"github.com/basm-dev/basm-sdk-go/memory"
)

// AbortExitCode is the exit status of an aborted instance (128 + SIGABRT).
const AbortExitCode = 134

// Imports is the host-provided function surface of the env import module.
type Imports interface {
	BufferLog(offset, length uint32)
	ConsoleLog(offset, length uint32)
	HTTPRequest(offset, length uint32) memory.FatPointer
	VerifyAttestation(offset, length uint32) memory.FatPointer
}

// Instance is one guest instance.
type Instance struct {
	arena       memory.Arena
	imports     Imports
	attestation *log.Channel
	console     *log.Channel
	terminate   func(code int)
}

// Option configures an Instance.
type Option func(*Instance)

// WithTerminator replaces the function that ends the instance after an abort.
func WithTerminator(fn func(code int)) Option {
	return func(i *Instance) {
		if fn != nil {
			i.terminate = fn
		}
	}
}

// New creates an instance over arena and imports.
func New(arena memory.Arena, imports Imports, opts ...Option) *Instance {
	inst := &Instance{
		arena:       arena,
		imports:     imports,
		attestation: log.NewChannel(log.AttestationChannel, arena, imports.BufferLog),
		console:     log.NewChannel(log.ConsoleChannel, arena, imports.ConsoleLog),
		terminate:   os.Exit,
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

func (i *Instance) Arena() memory.Arena       { return i.arena }
func (i *Instance) Imports() Imports          { return i.imports }
func (i *Instance) Attestation() *log.Channel { return i.attestation }
func (i *Instance) Console() *log.Channel     { return i.console }

// Abort reports err once on the debug console, then terminates the instance with
// AbortExitCode. With the default terminator it does not return.
func (i *Instance) Abort(err error) {
	// The console write is best effort: an exhausted arena must not stop termination.
	_ = i.console.Printf("guest aborted: %v", err)
	i.terminate(AbortExitCode)
}

// Logf writes one line to this instance's attestation log.
func (i *Instance) Logf(format string, args ...any) error {
	return i.attestation.Printf(format, args...)
}

// HostLogf writes one line to this instance's debug console.
func (i *Instance) HostLogf(format string, args ...any) error {
	return i.console.Printf(format, args...)
}

var (
	defaultOnce     sync.Once
	defaultInstance *Instance
)

// Default returns the instance backed by linear memory and the real host imports. It also
// becomes the target of log.Logf and log.HostLogf.
func Default() *Instance {
	defaultOnce.Do(func() {
		defaultInstance = New(memory.Default(), wasm.HostImports{})
		log.SetDefault(defaultInstance.attestation, defaultInstance.console)
	})
	return defaultInstance
}
