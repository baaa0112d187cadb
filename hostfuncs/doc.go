// Package hostfuncs provides pure Go implementations of the host side of the guest
// import surface: the httpRequest and verifyAttestation services and the bufferLog and
// consoleLog sinks.
//
// Services answer with ResultEnvelope JSON and never fail the guest: every error,
// including a recovered panic, becomes {"ok":false,"error":...}. These implementations
// have NO WASM runtime dependencies; infrastructure/wazero binds them to a runtime.
package hostfuncs

// Names of the env import module functions.
const (
	HTTPRequestService       = "httpRequest"
	VerifyAttestationService = "verifyAttestation"
	BufferLogSink            = "bufferLog"
	ConsoleLogSink           = "consoleLog"
)
