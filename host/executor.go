package host

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
	"github.com/basm-dev/basm-sdk-go/hostfuncs"
	wazeroadapter "github.com/basm-dev/basm-sdk-go/infrastructure/wazero"
)

// ErrAttestationUnavailable answers verifyAttestation when the executor runs with its
// default host functions.
var ErrAttestationUnavailable = errors.New("attestation verification is not configured")

// Executor compiles guest modules and runs their exports against one set of host
// functions.
type Executor struct {
	runtime          wazero.Runtime
	registry         *hostfuncs.HandlerRegistry
	logger           *zap.Logger
	moduleName       string
	runID            string
	instances        atomic.Uint64
	memoryLimitPages uint32
	maxRequestSize   uint32
	reuse            bool
	validateInput    bool
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{
		logger:         zap.NewNop(),
		moduleName:     wazeroadapter.DefaultModuleName,
		maxRequestSize: hostfuncs.DefaultMaxRequestSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runID == "" {
		e.runID = uuid.NewString()
	}

	// Default registry if not provided
	if e.registry == nil {
		reg, err := DefaultRegistry(e.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}

	cfg := wazero.NewRuntimeConfig()
	if e.memoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(e.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	err := wazeroadapter.RegisterWithRuntime(ctx, rt, e.registry,
		wazeroadapter.WithModuleName(e.moduleName),
		wazeroadapter.WithMaxRequestSize(e.maxRequestSize),
		wazeroadapter.WithLogger(e.logger),
	)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// DefaultRegistry provides every env import: outbound HTTP, both log sinks routed to
// logger and a verifyAttestation service that always fails with
// ErrAttestationUnavailable.
func DefaultRegistry(logger *zap.Logger) (*hostfuncs.HandlerRegistry, error) {
	unavailable := hostfuncs.VerifierFunc(func(context.Context, entities.AttestationRequest) (entities.AttestationOutcome, error) {
		return entities.AttestationOutcome{}, ErrAttestationUnavailable
	})
	return hostfuncs.NewRegistry(
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware(), hostfuncs.LoggingMiddleware(logger)),
		hostfuncs.WithBundle(hostfuncs.DefaultBundle(logger, unavailable, nil)),
	)
}

// RunID returns the ID shared by every invocation of this executor. Invocation IDs are
// "<module>-<run ID>-<sequence>".
func (e *Executor) RunID() string {
	return e.runID
}

// Close releases resources held by the executor, including every compiled module.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Compile validates and compiles a guest binary. The guest must export allocate.
func (e *Executor) Compile(ctx context.Context, name string, wasmBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module %q: %w", name, err)
	}
	if _, ok := compiled.ExportedFunctions()[wazeroadapter.AllocateExport]; !ok {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("%w: module %q", ErrMissingAllocate, name)
	}

	return &Module{
		name:     name,
		exec:     e,
		compiled: compiled,
	}, nil
}
