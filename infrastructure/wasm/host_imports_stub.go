//go:build !wasip1

// Package wasm binds the functions the host provides in the "env" import module.
package wasm

import "github.com/basm-dev/basm-sdk-go/memory"

// BufferLog stub for native builds.
func BufferLog(offset, length uint32) {
	panic("wasm: bufferLog host import not available in native build")
}

// ConsoleLog stub for native builds.
func ConsoleLog(offset, length uint32) {
	panic("wasm: consoleLog host import not available in native build")
}

// HTTPRequest stub for native builds.
func HTTPRequest(offset, length uint32) memory.FatPointer {
	panic("wasm: httpRequest host import not available in native build")
}

// VerifyAttestation stub for native builds.
func VerifyAttestation(offset, length uint32) memory.FatPointer {
	panic("wasm: verifyAttestation host import not available in native build")
}
