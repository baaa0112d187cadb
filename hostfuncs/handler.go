package hostfuncs

import (
	"context"
	"encoding/json"
)

// Service is a typed host service. A returned error is reported to the guest as an
// ok=false envelope carrying err.Error().
type Service[Req any, Resp any] func(context.Context, Req) (Resp, error)

// ByteHandler is a function that accepts raw bytes (JSON) and returns raw bytes (JSON).
// This is the common interface that WASM runtimes can easily use.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// LogSink receives one flushed log buffer from the guest.
type LogSink func(ctx context.Context, line []byte)

// NewEnvelopeHandler wraps a typed Service into a ByteHandler.
// It decodes the request and encodes the outcome as a ResultEnvelope.
//
// Usage:
//
//	handler := hostfuncs.NewEnvelopeHandler(func(ctx context.Context, req entities.HTTPRequest) (entities.HTTPRequestOutcome, error) {
//	    return hostfuncs.PerformHTTPRequest(ctx, req)
//	})
func NewEnvelopeHandler[Req any, Resp any](fn Service[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if err := json.Unmarshal(payload, &req); err != nil {
			return InvalidRequest("failed to unmarshal request: " + err.Error()), nil
		}

		resp, err := fn(ctx, req)
		if err != nil {
			return Fail(err.Error()), nil
		}
		return Succeed(resp)
	}
}
