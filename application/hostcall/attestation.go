package hostcall

import (
	"context"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
	"github.com/basm-dev/basm-sdk-go/domain/ports"
	"github.com/basm-dev/basm-sdk-go/guest"
)

// VerifyAttestation asks the host to verify a transitive attestation of the enclave
// holding publicKey against the acceptable measurements.
func VerifyAttestation(
	inst *guest.Instance,
	publicKey, transitiveAttestation string,
	acceptable []entities.EnclaveMeasurement,
) (entities.AttestationOutcome, error) {
	if acceptable == nil {
		acceptable = []entities.EnclaveMeasurement{}
	}
	req := entities.AttestationRequest{
		PublicKey:              publicKey,
		TransitiveAttestation:  transitiveAttestation,
		AcceptableMeasurements: acceptable,
	}
	return Call[entities.AttestationRequest, entities.AttestationOutcome](inst, AttestationService, inst.Imports().VerifyAttestation, req)
}

var _ ports.Attestor = (*Attestor)(nil)

// Attestor implements ports.Attestor on top of the host's verifyAttestation service.
type Attestor struct {
	inst *guest.Instance
}

// NewAttestor creates an attestor bound to inst, or to the default instance when inst is nil.
func NewAttestor(inst *guest.Instance) *Attestor {
	if inst == nil {
		inst = guest.Default()
	}
	return &Attestor{inst: inst}
}

func (a *Attestor) Verify(ctx context.Context, req entities.AttestationRequest) (entities.AttestationOutcome, error) {
	if err := ctx.Err(); err != nil {
		return entities.AttestationOutcome{}, err
	}
	return VerifyAttestation(a.inst, req.PublicKey, req.TransitiveAttestation, req.AcceptableMeasurements)
}
