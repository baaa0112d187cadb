package entities

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// HTTPRequest is the JSON wire format for an outbound HTTP request made by a guest.
type HTTPRequest struct {
	Headers map[string][]string `json:"headers"`
	URL     string              `json:"url"`
	Method  string              `json:"method"`
	Body    Bytes               `json:"body"`
}

// HTTPRequestOutcome is the host's answer to an HTTPRequest. Headers and Body are
// optional on the wire.
type HTTPRequestOutcome struct {
	Headers    map[string][]string `json:"headers"`
	Body       *string             `json:"body"`
	StatusCode uint16              `json:"status_code"`
}

// BodyString returns the response body, or "" when the host sent none.
func (o HTTPRequestOutcome) BodyString() string {
	if o.Body == nil {
		return ""
	}
	return *o.Body
}

// EnclaveMeasurement identifies an acceptable enclave build on a platform.
type EnclaveMeasurement struct {
	Platform string `json:"platform" yaml:"platform" validate:"required"`
	Code     string `json:"code" yaml:"code" validate:"required"`
}

// AttestationRequest asks the host to verify a transitive attestation against a set of
// acceptable measurements.
type AttestationRequest struct {
	PublicKey              string               `json:"enclave_attested_app_public_key"`
	TransitiveAttestation  string               `json:"transitive_attestation"`
	AcceptableMeasurements []EnclaveMeasurement `json:"acceptable_measurements"`
}

// AttestationOutcome carries the claims of a verified attestation.
type AttestationOutcome struct {
	RawClaims *string `json:"raw_claims"`
}

// Bytes is a byte slice encoded on the wire as an array of numbers, e.g. [104,105].
// Decoding also accepts a base64 string for hosts that send one.
type Bytes []byte

// MarshalJSON implements json.Marshaler.
func (b Bytes) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+len(b)*4)
	out = append(out, '[')
	for i, c := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(c), 10)
	}
	return append(out, ']'), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("decode base64 body: %w", err)
		}
		*b = decoded
		return nil
	}
	// encoding/json reads []uint8 as base64, so decode the array through ints.
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	nums := make([]byte, len(raw))
	for i, v := range raw {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte value %d out of range at index %d", v, i)
		}
		nums[i] = uint8(v)
	}
	*b = nums
	return nil
}
