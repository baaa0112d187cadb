package hostfuncs

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/basm-dev/basm-sdk-go/domain/ports"
)

// ConsoleSink logs debug-console lines from the guest at info level.
func ConsoleSink(logger *zap.Logger) LogSink {
	return func(ctx context.Context, line []byte) {
		logger.Info(strings.TrimSuffix(string(line), "\n"),
			zap.String("component", "guest-console"),
			zap.String("invocation", InvocationID(ctx)))
	}
}

// AttestationSink persists attestation-log lines under the invocation ID carried by ctx.
// Store failures are logged; the guest is never failed for them.
func AttestationSink(store ports.AttestationLog, logger *zap.Logger) LogSink {
	return func(ctx context.Context, line []byte) {
		id := InvocationID(ctx)
		if err := store.Append(ctx, id, line); err != nil {
			logger.Error("failed to persist attestation log line",
				zap.String("invocation", id), zap.Error(err))
		}
	}
}
