package hostfuncs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Middleware is a function that wraps a ByteHandler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next ByteHandler) ByteHandler

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware returns a middleware that catches panics and converts
// them to ok=false envelopes instead of crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = PanicFailure(r)
					err = nil
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware returns a middleware that logs host service invocations.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			funcName := "unknown"
			if hc, ok := ctx.(HostContext); ok {
				funcName = hc.FunctionName()
			}
			fields := []zap.Field{
				zap.String("function", funcName),
				zap.String("invocation", InvocationID(ctx)),
				zap.Int("request_bytes", len(payload)),
			}

			start := time.Now()
			resp, err := next(ctx, payload)
			fields = append(fields, zap.Duration("elapsed", time.Since(start)))
			if err != nil {
				logger.Error("host function failed", append(fields, zap.Error(err))...)
			} else {
				logger.Debug("host function completed", append(fields, zap.Int("response_bytes", len(resp)))...)
			}
			return resp, err
		}
	}
}
