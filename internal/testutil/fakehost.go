// Package testutil provides a simulated host for exercising guest code natively.
package testutil

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/basm-dev/basm-sdk-go/guest"
	"github.com/basm-dev/basm-sdk-go/memory"
)

// Handler answers a host service request with the bytes of a result envelope.
type Handler func(request []byte) []byte

// FakeHost implements guest.Imports over a SimulatedArena and records every call.
type FakeHost struct {
	Arena              *memory.SimulatedArena
	HTTPHandler        Handler
	AttestationHandler Handler

	attestationLogs     []string
	consoleLogs         []string
	httpRequests        [][]byte
	attestationRequests [][]byte
	terminations        []int
	mu                  sync.Mutex
}

var _ guest.Imports = (*FakeHost)(nil)

// NewFakeHost creates a host with an empty arena.
func NewFakeHost(opts ...memory.Option) *FakeHost {
	return &FakeHost{Arena: memory.NewSimulatedArena(opts...)}
}

// Instance returns a guest instance bound to this host. Terminations are recorded
// instead of exiting the process.
func (h *FakeHost) Instance() *guest.Instance {
	return guest.New(h.Arena, h, guest.WithTerminator(h.terminate))
}

// Place copies data into guest memory the way a host does through the allocate export.
func (h *FakeHost) Place(data []byte) memory.FatPointer {
	ptr, err := h.Arena.Leak(data)
	if err != nil {
		panic(fmt.Sprintf("testutil: place %d bytes: %v", len(data), err))
	}
	return ptr
}

// PlaceString is Place for text.
func (h *FakeHost) PlaceString(s string) memory.FatPointer {
	return h.Place([]byte(s))
}

// ReadString reads the buffer ptr describes.
func (h *FakeHost) ReadString(ptr memory.FatPointer) string {
	return string(h.Arena.Read(ptr))
}

func (h *FakeHost) BufferLog(offset, length uint32) {
	line := h.ReadString(memory.NewFatPointer(offset, length))
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attestationLogs = append(h.attestationLogs, line)
}

func (h *FakeHost) ConsoleLog(offset, length uint32) {
	line := h.ReadString(memory.NewFatPointer(offset, length))
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consoleLogs = append(h.consoleLogs, line)
}

func (h *FakeHost) HTTPRequest(offset, length uint32) memory.FatPointer {
	req := h.Arena.Read(memory.NewFatPointer(offset, length))
	h.mu.Lock()
	h.httpRequests = append(h.httpRequests, req)
	handler := h.HTTPHandler
	h.mu.Unlock()
	return h.respond(handler, req)
}

func (h *FakeHost) VerifyAttestation(offset, length uint32) memory.FatPointer {
	req := h.Arena.Read(memory.NewFatPointer(offset, length))
	h.mu.Lock()
	h.attestationRequests = append(h.attestationRequests, req)
	handler := h.AttestationHandler
	h.mu.Unlock()
	return h.respond(handler, req)
}

func (h *FakeHost) respond(handler Handler, req []byte) memory.FatPointer {
	if handler == nil {
		return h.PlaceString(`{"ok":false,"error":"service not configured","value":null}`)
	}
	return h.Place(handler(req))
}

func (h *FakeHost) terminate(code int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terminations = append(h.terminations, code)
}

// AttestationLogs returns the lines flushed to bufferLog.
func (h *FakeHost) AttestationLogs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.attestationLogs...)
}

// ConsoleLogs returns the lines flushed to consoleLog.
func (h *FakeHost) ConsoleLogs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.consoleLogs...)
}

// HTTPRequests returns the raw request payloads passed to httpRequest.
func (h *FakeHost) HTTPRequests() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]byte(nil), h.httpRequests...)
}

// AttestationRequests returns the raw request payloads passed to verifyAttestation.
func (h *FakeHost) AttestationRequests() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]byte(nil), h.attestationRequests...)
}

// Terminations returns the exit codes the instance terminated with.
func (h *FakeHost) Terminations() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.terminations...)
}

// Respond returns a Handler answering every request with raw.
func Respond(raw string) Handler {
	return func([]byte) []byte { return []byte(raw) }
}

// RespondJSON returns a Handler answering every request with v encoded as JSON.
func RespondJSON(v any) Handler {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal response: %v", err))
	}
	return func([]byte) []byte { return data }
}
