package ports

import (
	"context"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
)

// Attestor verifies transitive attestations.
type Attestor interface {
	Verify(ctx context.Context, req entities.AttestationRequest) (entities.AttestationOutcome, error)
}

// AttestationLog persists the attestation-log lines a guest emits during an invocation.
type AttestationLog interface {
	Append(ctx context.Context, invocationID string, line []byte) error
	Records(ctx context.Context, invocationID string) ([][]byte, error)
}
