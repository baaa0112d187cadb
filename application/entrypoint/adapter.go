package entrypoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"unicode/utf8"

	domainerrors "github.com/basm-dev/basm-sdk-go/domain/errors"
	"github.com/basm-dev/basm-sdk-go/guest"
	"github.com/basm-dev/basm-sdk-go/memory"
)

// ErrInvalidUTF8 reports a boundary buffer that is not valid UTF-8 text.
var ErrInvalidUTF8 = errors.New("buffer is not valid UTF-8")

// Adapter runs registered business functions against one guest instance.
type Adapter struct {
	inst     *guest.Instance
	registry *Registry
}

// NewAdapter creates an adapter serving registry on inst.
func NewAdapter(inst *guest.Instance, registry *Registry) *Adapter {
	return &Adapter{inst: inst, registry: registry}
}

// Invoke runs the function exported as name with the input and secret buffers and
// returns the descriptor of the encoded result. On failure the instance is aborted
// and, if its terminator returns, the null descriptor is returned.
func (a *Adapter) Invoke(name string, input, secret memory.FatPointer) memory.FatPointer {
	ptr, _ := a.run(name, input, secret)
	return ptr
}

func (a *Adapter) run(name string, input, secret memory.FatPointer) (ptr memory.FatPointer, state State) {
	state = Idle
	defer func() {
		if r := recover(); r != nil {
			ptr, state = a.abort(state, fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
		}
	}()

	desc, ok := a.registry.Lookup(name)
	if !ok {
		return a.abort(state, fmt.Errorf("no function exported as %q", name))
	}

	state = Decoding
	inputText, err := a.readText(input)
	if err != nil {
		return a.abort(state, fmt.Errorf("input: %w", err))
	}
	secretText, err := a.readText(secret)
	if err != nil {
		return a.abort(state, fmt.Errorf("secret: %w", err))
	}
	inv, err := desc.bind(inputText, secretText)
	if err != nil {
		return a.abort(state, err)
	}

	state = Invoking
	inv.invoke()

	state = Encoding
	out, err := inv.encode()
	if err != nil {
		return a.abort(state, err)
	}
	ptr, err = a.inst.Arena().Leak([]byte(out))
	if err != nil {
		return a.abort(state, err)
	}
	return ptr, Returned
}

func (a *Adapter) readText(ptr memory.FatPointer) (string, error) {
	data := a.inst.Arena().Read(ptr)
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}

func (a *Adapter) abort(stage State, err error) (memory.FatPointer, State) {
	a.inst.Abort(&domainerrors.BoundaryError{Stage: stage.String(), Err: err})
	return 0, Aborted
}

// Describe leaks the JSON manifest of the registry and returns its descriptor.
func (a *Adapter) Describe() memory.FatPointer {
	manifest, err := a.registry.Manifest()
	if err != nil {
		a.inst.Abort(&domainerrors.BoundaryError{Stage: "describe", Err: err})
		return 0
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		a.inst.Abort(&domainerrors.BoundaryError{Stage: "describe", Err: err})
		return 0
	}
	ptr, err := a.inst.Arena().Leak(data)
	if err != nil {
		a.inst.Abort(&domainerrors.BoundaryError{Stage: "describe", Err: err})
		return 0
	}
	return ptr
}

var (
	defaultAdapterOnce sync.Once
	defaultAdapter     *Adapter
)

// DefaultAdapter serves the default registry on the default guest instance.
func DefaultAdapter() *Adapter {
	defaultAdapterOnce.Do(func() {
		defaultAdapter = NewAdapter(guest.Default(), defaultRegistry)
	})
	return defaultAdapter
}

// Dispatch is called by each export shim with the raw fat pointers it received.
func Dispatch(name string, input, secret uint64) uint64 {
	return uint64(DefaultAdapter().Invoke(name, memory.FatPointer(input), memory.FatPointer(secret)))
}
