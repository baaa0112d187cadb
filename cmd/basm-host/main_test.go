package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/basm-dev/basm-sdk-go/application/config"
	"github.com/basm-dev/basm-sdk-go/domain/entities"
	"github.com/basm-dev/basm-sdk-go/internal/testutil"
)

func writeGuest(t *testing.T) string {
	t.Helper()
	manifest := `{"sdk_version":"0.1.0","functions":[{"name":"echo","input_schema":{"type":"object"}}]}`

	abi := testutil.NewGuestABI(1024)
	one := []testutil.ValType{testutil.I64}
	abi.Func("echo", []testutil.ValType{testutil.I64, testutil.I64}, one, testutil.LocalGet(0))
	abi.Func("describe", nil, one, testutil.ConstPointer(16, uint32(len(manifest))))
	abi.Data(16, []byte(manifest))

	path := filepath.Join(t.TempDir(), "echo.wasm")
	require.NoError(t, os.WriteFile(path, abi.Binary(), 0o600))
	return path
}

func TestRun_Invoke(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	inputFile := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(inputFile, []byte(`{"name":"bob"}`), 0o600))

	var out bytes.Buffer
	err = run(context.Background(), cfg, options{
		wasmFile: writeGuest(t),
		funcName: "echo",
		input:    "@" + inputFile,
		secret:   "{}",
	}, zap.NewNop(), &out)
	require.NoError(t, err)
	assert.Equal(t, "{\"name\":\"bob\"}\n", out.String())
}

func TestRun_Describe(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	var out bytes.Buffer
	err = run(context.Background(), cfg, options{wasmFile: writeGuest(t), describe: true}, zap.NewNop(), &out)
	require.NoError(t, err)

	var view manifestView
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, "0.1.0", view.SDKVersion)
	require.Len(t, view.Functions, 1)
	assert.Equal(t, "echo", view.Functions[0].Name)
	assert.Equal(t, map[string]any{"type": "object"}, view.Functions[0].InputSchema)
	assert.Nil(t, view.Functions[0].SecretSchema)
	assert.NotContains(t, out.String(), "secret_schema")
}

func TestRun_MissingModule(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	err = run(context.Background(), cfg, options{wasmFile: "does-not-exist.wasm"}, zap.NewNop(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read module")
}

func TestWriteManifest_BadSchema(t *testing.T) {
	err := writeManifest(&bytes.Buffer{}, entities.Manifest{
		Functions: []entities.FunctionManifest{{Name: "f", InputSchema: json.RawMessage(`{`)}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input schema of f")
}

func TestReadArg(t *testing.T) {
	got, err := readArg(`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	_, err = readArg("@" + filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := newLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}
	_, err := newLogger("loud")
	require.Error(t, err)
}
