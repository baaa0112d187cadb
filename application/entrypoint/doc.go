// Package entrypoint turns typed business functions into boundary-safe exports.
//
// A business function has the shape
//
//	func(ctx entrypoint.Context[I, S]) O
//
// and is registered under its export name:
//
//	var _ = entrypoint.MustRegister(entrypoint.Define("hello_world", HelloWorld))
//
// The //go:wasmexport shim for the export forwards both fat pointers to Dispatch:
//
//	//go:wasmexport hello_world
//	func helloWorld(input, secret uint64) uint64 {
//		return entrypoint.Dispatch("hello_world", input, secret)
//	}
//
// Dispatch reads and decodes both buffers, runs the function once and returns a fat
// pointer to the encoded result. Any failure along the way aborts the instance after
// exactly one message on the debug console. Nothing is ever returned to the host for a
// failed invocation.
package entrypoint
