package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   Bytes
		want string
	}{
		{name: "text", in: Bytes("hi"), want: `[104,105]`},
		{name: "binary", in: Bytes{0, 255}, want: `[0,255]`},
		{name: "empty", in: Bytes{}, want: `[]`},
		{name: "nil", in: nil, want: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestBytes_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Bytes
		wantErr bool
	}{
		{name: "number array", in: `[104,105]`, want: Bytes("hi")},
		{name: "base64 string", in: `"aGk="`, want: Bytes("hi")},
		{name: "null", in: `null`, want: nil},
		{name: "out of range", in: `[256]`, wantErr: true},
		{name: "negative", in: `[-1]`, wantErr: true},
		{name: "bad base64", in: `"!!"`, wantErr: true},
		{name: "wrong type", in: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Bytes
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPRequest_WireShape(t *testing.T) {
	req := HTTPRequest{
		URL:     "https://example.com/api",
		Method:  "POST",
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Body:    Bytes("{}"),
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"url": "https://example.com/api",
		"method": "POST",
		"headers": {"Content-Type": ["application/json"]},
		"body": [123,125]
	}`, string(data))
}

func TestHTTPRequestOutcome_Decode(t *testing.T) {
	var env ResultEnvelope[HTTPRequestOutcome]
	err := json.Unmarshal([]byte(`{"ok":true,"error":"","value":{"status_code":200,"headers":null,"body":"hi"}}`), &env)
	require.NoError(t, err)

	assert.True(t, env.OK)
	assert.Equal(t, uint16(200), env.Value.StatusCode)
	assert.Nil(t, env.Value.Headers)
	require.NotNil(t, env.Value.Body)
	assert.Equal(t, "hi", env.Value.BodyString())
}

func TestHTTPRequestOutcome_BodyStringWithoutBody(t *testing.T) {
	assert.Equal(t, "", HTTPRequestOutcome{StatusCode: 204}.BodyString())
}

func TestAttestationRequest_WireShape(t *testing.T) {
	req := AttestationRequest{
		PublicKey:             "pk",
		TransitiveAttestation: "att",
		AcceptableMeasurements: []EnclaveMeasurement{
			{Platform: "aws-nitro", Code: "abc"},
		},
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"enclave_attested_app_public_key": "pk",
		"transitive_attestation": "att",
		"acceptable_measurements": [{"platform": "aws-nitro", "code": "abc"}]
	}`, string(data))
}

func TestResultEnvelope_Helpers(t *testing.T) {
	ok := Succeed(AttestationOutcome{})
	assert.True(t, ok.OK)
	assert.Empty(t, ok.Error)

	failed := Fail[AttestationOutcome]("bad attestation")
	assert.False(t, failed.OK)
	assert.Equal(t, "bad attestation", failed.Error)

	data, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false,"error":"bad attestation","value":{"raw_claims":null}}`, string(data))
}

func TestManifest_Lookup(t *testing.T) {
	m := Manifest{Functions: []FunctionManifest{{Name: "hello_world"}}}

	f, ok := m.Lookup("hello_world")
	assert.True(t, ok)
	assert.Equal(t, "hello_world", f.Name)

	_, ok = m.Lookup("missing")
	assert.False(t, ok)
}
