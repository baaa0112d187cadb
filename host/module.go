package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	"github.com/basm-dev/basm-sdk-go/application/validation"
	"github.com/basm-dev/basm-sdk-go/domain/entities"
	"github.com/basm-dev/basm-sdk-go/hostfuncs"
	wazeroadapter "github.com/basm-dev/basm-sdk-go/infrastructure/wazero"
	"github.com/basm-dev/basm-sdk-go/memory"
)

// DescribeExport returns the manifest of a guest's registered functions.
const DescribeExport = "describe"

// Module is a compiled guest. Invocations are serialized: a guest instance is single
// threaded.
type Module struct {
	exec      *Executor
	compiled  wazero.CompiledModule
	instance  api.Module // kept between calls only with instance reuse
	validator *validation.SchemaValidator
	name      string
	calls     uint64
	mu        sync.Mutex
}

// Name returns the name the module was compiled under.
func (m *Module) Name() string {
	return m.name
}

// Functions returns the names of the guest's exported functions.
func (m *Module) Functions() []string {
	exports := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke calls function with the input and secret buffers and returns the bytes the
// guest answered with. A guest that terminates itself yields an *AbortError. With
// schema validation enabled, buffers that do not match the manifest yield a
// *validation.InputError and the function is not called.
func (m *Module) Invoke(ctx context.Context, function string, input, secret []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exec.validateInput {
		if err := m.validate(ctx, function, input, secret); err != nil {
			return nil, err
		}
	}

	m.calls++
	invocationID := fmt.Sprintf("%s-%s-%d", m.name, m.exec.runID, m.calls)
	ctx = hostfuncs.WithInvocationID(ctx, invocationID)
	ctx, console := wazeroadapter.WithConsoleCapture(ctx)

	inst, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer m.release(ctx, inst)

	fn := inst.ExportedFunction(function)
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, function)
	}

	inputPtr, err := wazeroadapter.WriteGuestBuffer(ctx, inst, input)
	if err != nil {
		return nil, fmt.Errorf("failed to place input: %w", err)
	}
	secretPtr, err := wazeroadapter.WriteGuestBuffer(ctx, inst, secret)
	if err != nil {
		return nil, fmt.Errorf("failed to place secret: %w", err)
	}

	m.exec.logger.Debug("invoking guest function",
		zap.String("module", m.name),
		zap.String("function", function),
		zap.String("invocation", invocationID),
		zap.Stringer("input", inputPtr),
		zap.Stringer("secret", secretPtr))

	results, err := fn.Call(ctx, uint64(inputPtr), uint64(secretPtr))
	if err != nil {
		return nil, m.callError(function, err, console)
	}
	return readResult(inst, results)
}

// Describe calls the describe export and decodes the manifest.
func (m *Module) Describe(ctx context.Context) (entities.Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.describe(ctx)
}

func (m *Module) describe(ctx context.Context) (entities.Manifest, error) {
	var manifest entities.Manifest
	ctx, console := wazeroadapter.WithConsoleCapture(hostfuncs.WithInvocationID(ctx, m.name+"-"+m.exec.runID+"-describe"))

	inst, err := m.acquire(ctx)
	if err != nil {
		return manifest, err
	}
	defer m.release(ctx, inst)

	fn := inst.ExportedFunction(DescribeExport)
	if fn == nil {
		return manifest, fmt.Errorf("%w: %q", ErrUnknownFunction, DescribeExport)
	}
	results, err := fn.Call(ctx)
	if err != nil {
		return manifest, m.callError(DescribeExport, err, console)
	}

	data, err := readResult(inst, results)
	if err != nil {
		return manifest, err
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return manifest, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return manifest, nil
}

func (m *Module) validate(ctx context.Context, function string, input, secret []byte) error {
	if m.validator == nil {
		manifest, err := m.describe(ctx)
		if err != nil {
			return fmt.Errorf("failed to load manifest for validation: %w", err)
		}
		v, err := validation.NewSchemaValidator(manifest)
		if err != nil {
			return err
		}
		m.validator = v
	}
	return m.validator.Validate(function, input, secret)
}

// Close releases the module and any instance kept for reuse.
func (m *Module) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.instance != nil {
		_ = m.instance.Close(ctx)
		m.instance = nil
	}
	return m.compiled.Close(ctx)
}

func (m *Module) acquire(ctx context.Context) (api.Module, error) {
	if m.instance != nil {
		return m.instance, nil
	}

	e := m.exec
	stdio := &zapio.Writer{Log: e.logger.With(zap.String("module", m.name)), Level: zap.WarnLevel}
	cfg := wazero.NewModuleConfig().
		WithName(fmt.Sprintf("%s#%d", m.name, e.instances.Add(1))).
		WithStartFunctions().
		WithStdout(stdio).
		WithStderr(stdio)

	inst, err := e.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module %q: %w", m.name, err)
	}

	// Reactor guests initialize their runtime in _initialize.
	if init := inst.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = inst.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	if e.reuse {
		m.instance = inst
	}
	return inst, nil
}

// release closes inst unless it is kept for reuse and still alive.
func (m *Module) release(ctx context.Context, inst api.Module) {
	if m.exec.reuse && !inst.IsClosed() {
		return
	}
	if m.instance == inst {
		m.instance = nil
	}
	_ = inst.Close(ctx)
}

func (m *Module) callError(function string, err error, console *wazeroadapter.ConsoleCapture) error {
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		abort := &AbortError{Function: function, ExitCode: exitErr.ExitCode(), Console: console.Last()}
		m.exec.logger.Warn("guest aborted",
			zap.String("module", m.name),
			zap.String("function", function),
			zap.Uint32("exit_code", abort.ExitCode),
			zap.String("console", abort.Console))
		return abort
	}
	return fmt.Errorf("guest function %q failed: %w", function, err)
}

func readResult(inst api.Module, results []uint64) ([]byte, error) {
	if len(results) == 0 {
		return nil, ErrNullResult
	}
	ptr := memory.FatPointer(results[0])
	if ptr.IsNull() {
		// Empty buffers are never allocated.
		return []byte{}, nil
	}
	data, ok := inst.Memory().Read(ptr.Offset(), ptr.Length())
	if !ok {
		return nil, fmt.Errorf("result %s is outside guest memory", ptr)
	}
	return append([]byte(nil), data...), nil
}
