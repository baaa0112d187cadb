// Package hostcall implements guest-initiated calls to host services.
//
// A request is encoded as JSON, leaked into shared memory and passed to the host
// function as (offset, length). The host answers with a fat pointer to a
// ResultEnvelope, which is decoded into the typed response.
package hostcall

import (
	"encoding/json"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
	"github.com/basm-dev/basm-sdk-go/domain/errors"
	"github.com/basm-dev/basm-sdk-go/guest"
	"github.com/basm-dev/basm-sdk-go/memory"
)

// Host service names, matching the env import module.
const (
	HTTPService        = "httpRequest"
	AttestationService = "verifyAttestation"
)

// HostFunc is the shape of a host service import.
type HostFunc func(offset, length uint32) memory.FatPointer

// Call invokes a host service with req and decodes its envelope into Resp.
//
// Encoding failures return *errors.SerializationError, malformed responses
// *errors.DeserializationError and ok=false envelopes *errors.HostError. A request that
// cannot be leaked is a boundary failure: the instance is aborted and, if the terminator
// returns, the *errors.BoundaryError is returned as well.
func Call[Req any, Resp any](inst *guest.Instance, service string, fn HostFunc, req Req) (Resp, error) {
	var zero Resp

	reqBytes, err := json.Marshal(req)
	if err != nil {
		return zero, &errors.SerializationError{Service: service, Err: err}
	}

	reqPtr, err := inst.Arena().Leak(reqBytes)
	if err != nil {
		boundaryErr := &errors.BoundaryError{Stage: service + " request", Err: err}
		inst.Abort(boundaryErr)
		return zero, boundaryErr
	}

	respPtr := fn(reqPtr.Offset(), reqPtr.Length())
	respBytes := inst.Arena().Read(respPtr)

	var envelope entities.ResultEnvelope[Resp]
	if err := json.Unmarshal(respBytes, &envelope); err != nil {
		return zero, &errors.DeserializationError{Service: service, Err: err}
	}
	if !envelope.OK {
		return zero, &errors.HostError{Service: service, Message: envelope.Error}
	}
	return envelope.Value, nil
}
