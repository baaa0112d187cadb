package hostfuncs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memLog struct {
	records map[string][][]byte
	err     error
}

func (m *memLog) Append(_ context.Context, id string, line []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.records == nil {
		m.records = make(map[string][][]byte)
	}
	m.records[id] = append(m.records[id], append([]byte(nil), line...))
	return nil
}

func (m *memLog) Records(_ context.Context, id string) ([][]byte, error) {
	return m.records[id], nil
}

func TestDefaultBundle(t *testing.T) {
	bundle := DefaultBundle(zap.NewNop(), DevelopmentVerifier(), nil)

	reg, err := NewRegistry(WithBundle(bundle))
	require.NoError(t, err)
	assert.Equal(t, []string{HTTPRequestService, VerifyAttestationService}, reg.Names())
	assert.Equal(t, []string{BufferLogSink, ConsoleLogSink}, reg.SinkNames())
}

func TestCombine_LaterWins(t *testing.T) {
	first := &staticBundle{handlers: map[string]ByteHandler{
		"x": func(context.Context, []byte) ([]byte, error) { return []byte("first"), nil },
	}}
	second := &staticBundle{handlers: map[string]ByteHandler{
		"x": func(context.Context, []byte) ([]byte, error) { return []byte("second"), nil },
	}}

	reg, err := NewRegistry(WithBundle(Combine(first, second)))
	require.NoError(t, err)

	resp, err := reg.Invoke(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", string(resp))
}

func TestWithBundle_ConflictsWithExplicitHandler(t *testing.T) {
	noop := func(context.Context, []byte) ([]byte, error) { return nil, nil }
	_, err := NewRegistry(
		WithByteHandler(HTTPRequestService, noop),
		WithBundle(HTTPBundle()),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate handler name")
}

func TestLogBundle(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	store := &memLog{}

	reg, err := NewRegistry(WithBundle(LogBundle(logger, store)))
	require.NoError(t, err)

	ctx := WithInvocationID(context.Background(), "inv-9")
	delivered, err := reg.Emit(ctx, BufferLogSink, []byte("attested\n"))
	require.NoError(t, err)
	require.True(t, delivered)
	delivered, err = reg.Emit(ctx, ConsoleLogSink, []byte("debug line\n"))
	require.NoError(t, err)
	require.True(t, delivered)

	records, err := store.Records(ctx, "inv-9")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("attested\n")}, records)

	entries := logs.FilterField(zap.String("component", "guest-console")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "debug line", entries[0].Message)
	assert.Equal(t, "inv-9", entries[0].ContextMap()["invocation"])
}

func TestLogBundle_WithoutStore(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg, err := NewRegistry(WithBundle(LogBundle(zap.New(core), nil)))
	require.NoError(t, err)

	_, err = reg.Emit(context.Background(), BufferLogSink, []byte("line"))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterField(zap.String("component", "guest-attestation")).Len())
}

func TestAttestationSink_StoreFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	sink := AttestationSink(&memLog{err: errors.New("disk full")}, zap.New(core))

	sink(WithInvocationID(context.Background(), "inv-1"), []byte("line"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "disk full", logs.All()[0].ContextMap()["error"])
}
