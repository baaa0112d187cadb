package hostfuncs

import (
	"context"

	"go.uber.org/zap"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
	"github.com/basm-dev/basm-sdk-go/domain/ports"
)

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering multiple services and sinks at once.
type HostFuncBundle interface {
	// Handlers returns a map of service names to ByteHandler functions.
	Handlers() map[string]ByteHandler

	// Sinks returns a map of sink names to LogSink functions.
	Sinks() map[string]LogSink
}

// staticBundle implements HostFuncBundle with a fixed set of entries.
type staticBundle struct {
	handlers map[string]ByteHandler
	sinks    map[string]LogSink
}

func (b *staticBundle) Handlers() map[string]ByteHandler {
	return b.handlers
}

func (b *staticBundle) Sinks() map[string]LogSink {
	return b.sinks
}

// HTTPBundle returns a bundle with the httpRequest service.
func HTTPBundle(opts ...HTTPOption) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			HTTPRequestService: NewEnvelopeHandler(func(ctx context.Context, req entities.HTTPRequest) (entities.HTTPRequestOutcome, error) {
				return PerformHTTPRequest(ctx, req, opts...)
			}),
		},
	}
}

// AttestationBundle returns a bundle with the verifyAttestation service backed by v.
func AttestationBundle(v Verifier) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			VerifyAttestationService: NewEnvelopeHandler(Service[entities.AttestationRequest, entities.AttestationOutcome](v.Verify)),
		},
	}
}

// LogBundle returns a bundle with the consoleLog and bufferLog sinks. A nil store
// sends attestation-log lines to the logger instead.
func LogBundle(logger *zap.Logger, store ports.AttestationLog) HostFuncBundle {
	attestation := func(ctx context.Context, line []byte) {
		logger.Info(string(line), zap.String("component", "guest-attestation"),
			zap.String("invocation", InvocationID(ctx)))
	}
	if store != nil {
		attestation = AttestationSink(store, logger)
	}
	return &staticBundle{
		sinks: map[string]LogSink{
			ConsoleLogSink: ConsoleSink(logger),
			BufferLogSink:  attestation,
		},
	}
}

// compositeBundle combines multiple bundles into one.
type compositeBundle struct {
	bundles []HostFuncBundle
}

func (b *compositeBundle) Handlers() map[string]ByteHandler {
	result := make(map[string]ByteHandler)
	for _, bundle := range b.bundles {
		for name, handler := range bundle.Handlers() {
			result[name] = handler
		}
	}
	return result
}

func (b *compositeBundle) Sinks() map[string]LogSink {
	result := make(map[string]LogSink)
	for _, bundle := range b.bundles {
		for name, sink := range bundle.Sinks() {
			result[name] = sink
		}
	}
	return result
}

// Combine merges bundles. Later bundles win on name collisions.
func Combine(bundles ...HostFuncBundle) HostFuncBundle {
	return &compositeBundle{bundles: bundles}
}

// DefaultBundle returns every function of the env import module: httpRequest,
// verifyAttestation, consoleLog and bufferLog.
func DefaultBundle(logger *zap.Logger, verifier Verifier, store ports.AttestationLog, httpOpts ...HTTPOption) HostFuncBundle {
	return Combine(
		HTTPBundle(httpOpts...),
		AttestationBundle(verifier),
		LogBundle(logger, store),
	)
}

// WithBundle registers all services and sinks from a bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for name, handler := range bundle.Handlers() {
			b.addHandler(name, handler)
		}
		for name, sink := range bundle.Sinks() {
			b.addSink(name, sink)
		}
	}
}
