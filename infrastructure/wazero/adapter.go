package wazero

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/basm-dev/basm-sdk-go/hostfuncs"
	"github.com/basm-dev/basm-sdk-go/memory"
)

// DefaultModuleName is the import module guests link their host functions from.
const DefaultModuleName = "env"

// AllocateExport is the guest export used to place responses into guest memory.
const AllocateExport = "allocate"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// Logger receives adapter failures. Defaults to a no-op logger.
	Logger *zap.Logger

	// ModuleName is the host module name (default: "env").
	ModuleName string

	// MaxRequestSize limits the size of request and log buffers read from guest memory.
	// Default is 1MB.
	MaxRequestSize uint32
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "env").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the maximum request size from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithLogger sets the logger for adapter failures.
func WithLogger(logger *zap.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Logger:         zap.NewNop(),
		ModuleName:     DefaultModuleName,
		MaxRequestSize: hostfuncs.DefaultMaxRequestSize,
	}
}

// RegisterWithRuntime registers every service and log sink of a HandlerRegistry as a
// host module of runtime.
//
// Services are exported as (offset, length i32) -> i64. The handler reads the request
// from guest memory, invokes the registry, places the envelope into guest memory through
// the guest's allocate export and returns its fat pointer.
//
// Sinks are exported as (offset, length i32) -> (). The buffer is copied out of guest
// memory and handed to the sink.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	bufferParams := []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}

	for _, name := range registry.Names() {
		funcName := name
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				stack[0] = uint64(handleServiceCall(ctx, mod, stack, registry, funcName, cfg))
			}), bufferParams, []api.ValueType{api.ValueTypeI64}).
			WithParameterNames("offset", "length").
			Export(funcName)
	}

	for _, name := range registry.SinkNames() {
		sinkName := name
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				handleSinkCall(ctx, mod, stack, registry, sinkName, cfg)
			}), bufferParams, []api.ValueType{}).
			WithParameterNames("offset", "length").
			Export(sinkName)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("instantiate host module %q: %w", cfg.ModuleName, err)
	}
	return nil
}

// handleServiceCall answers a service import. Every failure is answered with an
// ok=false envelope; only a guest that cannot receive any response gets a null pointer.
func handleServiceCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.HandlerRegistry, name string, cfg AdapterConfig) memory.FatPointer {
	ctx = withInvocation(ctx, mod)
	ptr := memory.NewFatPointer(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))

	request, err := readGuestBuffer(mod, ptr, cfg.MaxRequestSize)
	if err != nil {
		cfg.Logger.Error("wazero: bad service request", zap.String("function", name), zap.Error(err))
		return writeResponse(ctx, mod, hostfuncs.InvalidRequest(err.Error()), cfg.Logger)
	}

	response, err := registry.Invoke(ctx, name, request)
	if err != nil {
		cfg.Logger.Error("wazero: handler invocation failed", zap.String("function", name), zap.Error(err))
		response = hostfuncs.Fail(err.Error())
	}
	return writeResponse(ctx, mod, response, cfg.Logger)
}

func handleSinkCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.HandlerRegistry, name string, cfg AdapterConfig) {
	ctx = withInvocation(ctx, mod)
	ptr := memory.NewFatPointer(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))

	line, err := readGuestBuffer(mod, ptr, cfg.MaxRequestSize)
	if err != nil {
		cfg.Logger.Error("wazero: dropped log buffer", zap.String("sink", name), zap.Error(err))
		return
	}
	if name == hostfuncs.ConsoleLogSink {
		captureConsole(ctx, line)
	}
	if _, err := registry.Emit(ctx, name, line); err != nil {
		cfg.Logger.Error("wazero: log sink failed", zap.String("sink", name), zap.Error(err))
	}
}

// readGuestBuffer copies the buffer ptr describes out of guest memory. The copy
// survives later growth of the guest memory.
func readGuestBuffer(mod api.Module, ptr memory.FatPointer, limit uint32) ([]byte, error) {
	if ptr.Length() > limit {
		return nil, fmt.Errorf("buffer size %d exceeds maximum %d bytes", ptr.Length(), limit)
	}
	if ptr.Length() == 0 {
		return []byte{}, nil
	}
	view, ok := mod.Memory().Read(ptr.Offset(), ptr.Length())
	if !ok {
		return nil, fmt.Errorf("buffer %s is outside guest memory", ptr)
	}
	return append([]byte(nil), view...), nil
}

// writeResponse places data into guest memory using the guest's allocate export.
// Returns the null pointer on failure.
func writeResponse(ctx context.Context, mod api.Module, data []byte, logger *zap.Logger) memory.FatPointer {
	ptr, err := WriteGuestBuffer(ctx, mod, data)
	if err != nil {
		logger.Error("wazero: failed to deliver response", zap.Error(err))
		return 0
	}
	return ptr
}

// WriteGuestBuffer allocates len(data) bytes in the guest and copies data in.
func WriteGuestBuffer(ctx context.Context, mod api.Module, data []byte) (memory.FatPointer, error) {
	if len(data) == 0 {
		return 0, nil
	}
	allocate := mod.ExportedFunction(AllocateExport)
	if allocate == nil {
		return 0, fmt.Errorf("guest module missing %q export", AllocateExport)
	}
	ptr, err := memory.FatPointerFor(0, len(data))
	if err != nil {
		return 0, err
	}

	results, err := allocate.Call(ctx, api.EncodeU32(ptr.Length()))
	if err != nil {
		return 0, fmt.Errorf("call guest allocate: %w", err)
	}
	offset := api.DecodeU32(results[0])
	if offset == 0 {
		return 0, fmt.Errorf("guest allocate: %w: %d bytes", memory.ErrOutOfMemory, len(data))
	}
	if !mod.Memory().Write(offset, data) {
		return 0, fmt.Errorf("write %d bytes at %#x: outside guest memory", len(data), offset)
	}
	return memory.NewFatPointer(offset, ptr.Length()), nil
}
