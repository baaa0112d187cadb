package host

import (
	"go.uber.org/zap"

	"github.com/basm-dev/basm-sdk-go/hostfuncs"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithHostFunctions configures the executor with a host function registry.
func WithHostFunctions(registry *hostfuncs.HandlerRegistry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithLogger sets the logger for the executor, its default host functions and guest
// stdout/stderr.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithInstanceReuse keeps one guest instance alive across invocations of a module.
// Leaked guest memory then accumulates until the module is closed or the guest aborts.
// By default every invocation gets a fresh instance.
func WithInstanceReuse(reuse bool) Option {
	return func(e *Executor) {
		e.reuse = reuse
	}
}

// WithMemoryLimitPages caps guest linear memory, in 64KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(e *Executor) {
		e.memoryLimitPages = pages
	}
}

// WithMaxRequestSize limits the buffers the host reads from guest memory.
func WithMaxRequestSize(size uint32) Option {
	return func(e *Executor) {
		e.maxRequestSize = size
	}
}

// WithModuleName sets the name of the host import module (default "env").
func WithModuleName(name string) Option {
	return func(e *Executor) {
		e.moduleName = name
	}
}

// WithSchemaValidation checks input and secret buffers against the schemas of the
// guest manifest before each invocation. The manifest is read once per module.
func WithSchemaValidation(enabled bool) Option {
	return func(e *Executor) {
		e.validateInput = enabled
	}
}

// WithRunID sets the ID that scopes invocation IDs, and with them attestation-log
// records. It must be unique per executor across everything sharing an attestation
// log and must not contain "/". By default a random UUID is used.
func WithRunID(id string) Option {
	return func(e *Executor) {
		e.runID = id
	}
}
