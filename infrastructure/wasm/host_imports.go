//go:build wasip1

// Package wasm binds the functions the host provides in the "env" import module.
package wasm

import "github.com/basm-dev/basm-sdk-go/memory"

//go:wasmimport env bufferLog
func bufferLog(offset, length uint32)

//go:wasmimport env consoleLog
func consoleLog(offset, length uint32)

//go:wasmimport env httpRequest
func httpRequest(offset, length uint32) uint64

//go:wasmimport env verifyAttestation
func verifyAttestation(offset, length uint32) uint64

// BufferLog appends one entry to the attestation log.
func BufferLog(offset, length uint32) {
	bufferLog(offset, length)
}

// ConsoleLog writes one entry to the host's debug console.
func ConsoleLog(offset, length uint32) {
	consoleLog(offset, length)
}

// HTTPRequest asks the host to perform an HTTP request described by the JSON at
// (offset, length). The returned descriptor points at a ResultEnvelope.
func HTTPRequest(offset, length uint32) memory.FatPointer {
	return memory.FatPointer(httpRequest(offset, length))
}

// VerifyAttestation asks the host to verify a transitive attestation.
func VerifyAttestation(offset, length uint32) memory.FatPointer {
	return memory.FatPointer(verifyAttestation(offset, length))
}
