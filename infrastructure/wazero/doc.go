// Package wazero binds the host functions of package hostfuncs to the wazero runtime.
//
// It registers the env import module a guest links against:
//
//   - httpRequest and verifyAttestation take (offset, length i32) of a JSON request and
//     return an i64 fat pointer to a result envelope placed in guest memory.
//   - bufferLog and consoleLog take (offset, length i32) of a log line and return nothing.
//
// Responses are placed through the guest's allocate export, so the guest owns every
// buffer it reads.
//
// # Basic Usage
//
//	registry, err := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.DefaultBundle(logger, verifier, store)),
//	)
//	if err != nil {
//	    return err
//	}
//
//	runtime := wazero.NewRuntime(ctx)
//	err = wazero.RegisterWithRuntime(ctx, runtime, registry,
//	    wazero.WithLogger(logger),
//	)
package wazero
