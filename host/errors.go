package host

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAllocate rejects guest modules that cannot receive buffers.
	ErrMissingAllocate = errors.New("guest does not export allocate")

	// ErrUnknownFunction is returned for exports the guest does not have.
	ErrUnknownFunction = errors.New("guest export not found")

	// ErrNullResult is returned when a guest function returns no value at all.
	ErrNullResult = errors.New("guest function returned no result")
)

// AbortError reports a guest that terminated itself during an invocation.
type AbortError struct {
	Function string
	// Console is the last debug-console line the guest wrote, normally its abort reason.
	Console  string
	ExitCode uint32
}

func (e *AbortError) Error() string {
	if e.Console == "" {
		return fmt.Sprintf("guest function %q aborted with exit code %d", e.Function, e.ExitCode)
	}
	return fmt.Sprintf("guest function %q aborted with exit code %d: %s", e.Function, e.ExitCode, e.Console)
}
