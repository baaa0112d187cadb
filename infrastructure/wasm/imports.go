package wasm

import "github.com/basm-dev/basm-sdk-go/memory"

// HostImports exposes the env import module as a value so it can be swapped for a
// simulated host.
type HostImports struct{}

func (HostImports) BufferLog(offset, length uint32)  { BufferLog(offset, length) }
func (HostImports) ConsoleLog(offset, length uint32) { ConsoleLog(offset, length) }

func (HostImports) HTTPRequest(offset, length uint32) memory.FatPointer {
	return HTTPRequest(offset, length)
}

func (HostImports) VerifyAttestation(offset, length uint32) memory.FatPointer {
	return VerifyAttestation(offset, length)
}
