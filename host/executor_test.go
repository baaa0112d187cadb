package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/basm-dev/basm-sdk-go/application/validation"
	"github.com/basm-dev/basm-sdk-go/hostfuncs"
	"github.com/basm-dev/basm-sdk-go/infrastructure/attestlog"
	"github.com/basm-dev/basm-sdk-go/internal/testutil"
)

const (
	manifestOffset = 16
	abortOffset    = 512
	heapStart      = 1024
	abortLine      = "guest aborted: boom\n"
	manifestJSON   = `{"sdk_version":"0.1.0","functions":[{"name":"echo","input_schema":{"type":"string"},"secret_schema":{"type":"string"}}]}`
)

// guestBinary assembles a guest exposing the business-function shape
// func(input, secret uint64) uint64.
func guestBinary() []byte {
	pair := []testutil.ValType{testutil.I64, testutil.I64}
	one := []testutil.ValType{testutil.I64}

	abi := testutil.NewGuestABI(heapStart)
	abi.Func("echo", pair, one, testutil.LocalGet(0))
	abi.Func("secret", pair, one, testutil.LocalGet(1))
	abi.Func("heap_top", pair, one, testutil.GlobalGet(abi.Heap), testutil.I64ExtendI32U())
	abi.Func("attest", pair, one,
		testutil.SplitPointer(0), testutil.Call(abi.BufferLog),
		testutil.LocalGet(0))
	abi.Func("crash", pair, one,
		testutil.I32Const(abortOffset), testutil.I32Const(int32(len(abortLine))), testutil.Call(abi.ConsoleLog),
		testutil.I32Const(134), testutil.Call(abi.ProcExit),
		testutil.I64Const(0))
	abi.Func(DescribeExport, nil, one, testutil.ConstPointer(manifestOffset, uint32(len(manifestJSON))))
	abi.Data(manifestOffset, []byte(manifestJSON))
	abi.Data(abortOffset, []byte(abortLine))
	return abi.Binary()
}

func newModule(t *testing.T, opts ...Option) *Module {
	t.Helper()
	ctx := context.Background()

	e, err := NewExecutor(ctx, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(ctx) })

	mod, err := e.Compile(ctx, "guest", guestBinary())
	require.NoError(t, err)
	return mod
}

func TestNewExecutor(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.NotEmpty(t, e.RunID())
	assert.NoError(t, e.Close(ctx))

	named, err := NewExecutor(ctx, WithRunID("nightly"))
	require.NoError(t, err)
	assert.Equal(t, "nightly", named.RunID())
	assert.NoError(t, named.Close(ctx))
}

func TestDefaultRegistry(t *testing.T) {
	reg, err := DefaultRegistry(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{hostfuncs.HTTPRequestService, hostfuncs.VerifyAttestationService}, reg.Names())
	assert.Equal(t, []string{hostfuncs.BufferLogSink, hostfuncs.ConsoleLogSink}, reg.SinkNames())

	resp, err := reg.Invoke(context.Background(), hostfuncs.VerifyAttestationService, []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error":"attestation verification is not configured","value":null}`, string(resp))
}

func TestCompile(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	require.NoError(t, err)
	defer e.Close(ctx)

	t.Run("invalid binary", func(t *testing.T) {
		_, err := e.Compile(ctx, "junk", []byte("not wasm"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `failed to compile module "junk"`)
	})

	t.Run("missing allocate", func(t *testing.T) {
		_, err := e.Compile(ctx, "bare", testutil.NewWasmModule().Binary())
		assert.ErrorIs(t, err, ErrMissingAllocate)
	})

	t.Run("exports", func(t *testing.T) {
		mod, err := e.Compile(ctx, "guest", guestBinary())
		require.NoError(t, err)
		defer mod.Close(ctx)
		assert.Equal(t, "guest", mod.Name())
		assert.Equal(t, []string{"allocate", "attest", "crash", "describe", "echo", "heap_top", "secret"}, mod.Functions())
	})
}

func TestModule_Invoke(t *testing.T) {
	ctx := context.Background()
	mod := newModule(t)

	tests := []struct {
		name     string
		function string
		input    []byte
		secret   []byte
		want     []byte
	}{
		{name: "input", function: "echo", input: []byte(`{"name":"bob"}`), secret: []byte(`{}`), want: []byte(`{"name":"bob"}`)},
		{name: "secret", function: "secret", input: []byte(`{}`), secret: []byte(`{"token":"t"}`), want: []byte(`{"token":"t"}`)},
		{name: "empty input", function: "echo", want: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mod.Invoke(ctx, tt.function, tt.input, tt.secret)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModule_InvokeUnknownFunction(t *testing.T) {
	_, err := newModule(t).Invoke(context.Background(), "missing", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownFunction)
}

func TestModule_InvokeAbort(t *testing.T) {
	ctx := context.Background()
	mod := newModule(t)

	_, err := mod.Invoke(ctx, "crash", []byte(`{}`), []byte(`{}`))
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, &AbortError{Function: "crash", ExitCode: 134, Console: "guest aborted: boom"}, abort)
	assert.Equal(t, `guest function "crash" aborted with exit code 134: guest aborted: boom`, abort.Error())

	got, err := mod.Invoke(ctx, "echo", []byte("again"), nil)
	require.NoError(t, err)
	assert.Equal(t, "again", string(got))
}

func TestModule_InstanceLifecycle(t *testing.T) {
	ctx := context.Background()
	input, secret := []byte("abcd"), []byte("xy")
	firstTop := heapStart + len(input) + len(secret)

	t.Run("fresh instance per call", func(t *testing.T) {
		mod := newModule(t)
		for i := 0; i < 3; i++ {
			got, err := mod.Invoke(ctx, "heap_top", input, secret)
			require.NoError(t, err)
			assert.Len(t, got, firstTop)
		}
	})

	t.Run("reused instance keeps leaked memory", func(t *testing.T) {
		mod := newModule(t, WithInstanceReuse(true))
		for i := 0; i < 3; i++ {
			got, err := mod.Invoke(ctx, "heap_top", input, secret)
			require.NoError(t, err)
			assert.Len(t, got, firstTop+i*(len(input)+len(secret)))
		}
	})

	t.Run("abort discards reused instance", func(t *testing.T) {
		mod := newModule(t, WithInstanceReuse(true))
		_, err := mod.Invoke(ctx, "heap_top", input, secret)
		require.NoError(t, err)

		_, err = mod.Invoke(ctx, "crash", input, secret)
		var abort *AbortError
		require.ErrorAs(t, err, &abort)

		got, err := mod.Invoke(ctx, "heap_top", input, secret)
		require.NoError(t, err)
		assert.Len(t, got, firstTop)
	})
}

func TestModule_Describe(t *testing.T) {
	manifest, err := newModule(t).Describe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "0.1.0", manifest.SDKVersion)
	require.Len(t, manifest.Functions, 1)
	assert.Equal(t, "echo", manifest.Functions[0].Name)
	assert.JSONEq(t, `{"type":"string"}`, string(manifest.Functions[0].InputSchema))
}

func TestModule_AttestationLog(t *testing.T) {
	ctx := context.Background()
	store := attestlog.NewMemStore()
	defer store.Close()

	reg, err := hostfuncs.NewRegistry(
		hostfuncs.WithBundle(hostfuncs.DefaultBundle(zap.NewNop(), hostfuncs.DevelopmentVerifier(), store)),
	)
	require.NoError(t, err)
	mod := newModule(t, WithHostFunctions(reg), WithRunID("run1"))

	_, err = mod.Invoke(ctx, "attest", []byte("first line\n"), nil)
	require.NoError(t, err)
	_, err = mod.Invoke(ctx, "attest", []byte("second line\n"), nil)
	require.NoError(t, err)

	first, err := store.Records(ctx, "guest-run1-1")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("first line\n")}, first)

	second, err := store.Records(ctx, "guest-run1-2")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("second line\n")}, second)
}

func TestModule_AttestationLogAcrossExecutors(t *testing.T) {
	ctx := context.Background()
	store, err := attestlog.Open("attestation", "goleveldb", t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	var runs []string
	for _, line := range []string{"run a\n", "run b\n"} {
		reg, err := hostfuncs.NewRegistry(
			hostfuncs.WithBundle(hostfuncs.DefaultBundle(zap.NewNop(), hostfuncs.DevelopmentVerifier(), store)),
		)
		require.NoError(t, err)

		e, err := NewExecutor(ctx, WithHostFunctions(reg))
		require.NoError(t, err)
		mod, err := e.Compile(ctx, "guest", guestBinary())
		require.NoError(t, err)

		_, err = mod.Invoke(ctx, "attest", []byte(line), nil)
		require.NoError(t, err)
		runs = append(runs, e.RunID())
		require.NoError(t, e.Close(ctx))
	}

	require.NotEqual(t, runs[0], runs[1])
	for i, want := range []string{"run a\n", "run b\n"} {
		records, err := store.Records(ctx, "guest-"+runs[i]+"-1")
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte(want)}, records)
	}
}

func TestModule_ManifestDecodeFailure(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	require.NoError(t, err)
	defer e.Close(ctx)

	abi := testutil.NewGuestABI(heapStart)
	abi.Data(manifestOffset, []byte("not json"))
	abi.Func(DescribeExport, nil, []testutil.ValType{testutil.I64}, testutil.ConstPointer(manifestOffset, 8))

	mod, err := e.Compile(ctx, "broken", abi.Binary())
	require.NoError(t, err)

	_, err = mod.Describe(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode manifest")
	assert.NoError(t, mod.Close(ctx))
}

func TestAbortError_WithoutConsole(t *testing.T) {
	err := &AbortError{Function: "run", ExitCode: 1}
	assert.Equal(t, `guest function "run" aborted with exit code 1`, err.Error())
}

func TestModule_SchemaValidation(t *testing.T) {
	ctx := context.Background()
	mod := newModule(t, WithSchemaValidation(true))

	got, err := mod.Invoke(ctx, "echo", []byte(`"hi"`), []byte(`"s"`))
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, string(got))

	_, err = mod.Invoke(ctx, "echo", []byte(`{"name":"bob"}`), []byte(`"s"`))
	var inputErr *validation.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, validation.InputBuffer, inputErr.Buffer)

	// Functions missing from the manifest are not checked.
	got, err = mod.Invoke(ctx, "secret", []byte(`{}`), []byte(`{"token":"t"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"token":"t"}`, string(got))
}
