// Package host provides the runtime environment for executing basm guest modules.
//
// It abstracts the underlying WASM engine (wazero), manages guest instance lifecycle and
// handles the low-level ABI interactions: placing the input and secret buffers through
// the guest's allocate export, calling a business export with two fat pointers and
// reading the result back. The env host module is registered from a
// hostfuncs.HandlerRegistry.
package host
