package entities

import "encoding/json"

// Manifest describes the functions a guest module exports.
type Manifest struct {
	SDKVersion string             `json:"sdk_version" yaml:"sdk_version"`
	Functions  []FunctionManifest `json:"functions" yaml:"functions"`
}

// FunctionManifest describes one exported business function.
type FunctionManifest struct {
	Name         string          `json:"name" yaml:"name"`
	InputSchema  json.RawMessage `json:"input_schema,omitempty" yaml:"-"`
	SecretSchema json.RawMessage `json:"secret_schema,omitempty" yaml:"-"`
}

// Lookup returns the manifest entry for name.
func (m Manifest) Lookup(name string) (FunctionManifest, bool) {
	for _, f := range m.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return FunctionManifest{}, false
}
