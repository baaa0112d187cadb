package hostfuncs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/basm-dev/basm-sdk-go/domain/entities"
)

// Verifier checks a transitive attestation. Implementations hold the platform-specific
// cryptography; the host only routes requests to them.
type Verifier interface {
	Verify(ctx context.Context, req entities.AttestationRequest) (entities.AttestationOutcome, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, req entities.AttestationRequest) (entities.AttestationOutcome, error)

func (f VerifierFunc) Verify(ctx context.Context, req entities.AttestationRequest) (entities.AttestationOutcome, error) {
	return f(ctx, req)
}

var (
	// ErrMeasurementRejected means the attested enclave runs code outside the acceptable set.
	ErrMeasurementRejected = errors.New("enclave measurement not acceptable")

	// ErrPublicKeyMismatch means the attestation binds a different application key.
	ErrPublicKeyMismatch = errors.New("attested public key does not match")
)

// DevelopmentDocument is the attestation format accepted by DevelopmentVerifier: a
// base64-encoded JSON document with no signature.
type DevelopmentDocument struct {
	Measurement entities.EnclaveMeasurement `json:"measurement"`
	PublicKey   string                      `json:"public_key"`
	Claims      json.RawMessage             `json:"claims,omitempty"`
}

// EncodeDevelopmentAttestation produces a transitive attestation DevelopmentVerifier accepts.
func EncodeDevelopmentAttestation(doc DevelopmentDocument) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode attestation: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DevelopmentVerifier accepts unsigned development attestations. It checks the
// measurement and public key binding but proves nothing about the enclave. Never use
// it outside local development.
func DevelopmentVerifier() Verifier {
	return VerifierFunc(func(ctx context.Context, req entities.AttestationRequest) (entities.AttestationOutcome, error) {
		raw, err := base64.StdEncoding.DecodeString(req.TransitiveAttestation)
		if err != nil {
			return entities.AttestationOutcome{}, fmt.Errorf("decode attestation: %w", err)
		}
		var doc DevelopmentDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return entities.AttestationOutcome{}, fmt.Errorf("parse attestation: %w", err)
		}

		if doc.PublicKey != req.PublicKey {
			return entities.AttestationOutcome{}, ErrPublicKeyMismatch
		}
		accepted := false
		for _, m := range req.AcceptableMeasurements {
			if m == doc.Measurement {
				accepted = true
				break
			}
		}
		if !accepted {
			return entities.AttestationOutcome{}, fmt.Errorf("%w: %s/%s",
				ErrMeasurementRejected, doc.Measurement.Platform, doc.Measurement.Code)
		}

		if len(doc.Claims) == 0 {
			return entities.AttestationOutcome{}, nil
		}
		claims := string(doc.Claims)
		return entities.AttestationOutcome{RawClaims: &claims}, nil
	})
}

// RestrictMeasurements limits the measurements a guest may accept to those the host
// allows. Requests whose acceptable set shares nothing with allowed are rejected
// without calling v.
func RestrictMeasurements(v Verifier, allowed []entities.EnclaveMeasurement) Verifier {
	return VerifierFunc(func(ctx context.Context, req entities.AttestationRequest) (entities.AttestationOutcome, error) {
		var kept []entities.EnclaveMeasurement
		for _, m := range req.AcceptableMeasurements {
			for _, a := range allowed {
				if m == a {
					kept = append(kept, m)
					break
				}
			}
		}
		if len(kept) == 0 {
			return entities.AttestationOutcome{}, fmt.Errorf("%w: none of the requested measurements is allowed by the host",
				ErrMeasurementRejected)
		}
		req.AcceptableMeasurements = kept
		return v.Verify(ctx, req)
	})
}
