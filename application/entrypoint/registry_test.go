//go:build !wasip1

package entrypoint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(ctx Context[string, string]) string { return ctx.Input }

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(Define("b", echo)))
	require.NoError(t, reg.Register(Define("a", echo)))

	err := reg.Register(Define("a", echo))
	assert.ErrorIs(t, err, ErrDuplicate)

	err = reg.Register(Define("", echo))
	assert.ErrorIs(t, err, ErrEmptyName)

	assert.Equal(t, []string{"a", "b"}, reg.Names())

	d, ok := reg.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", d.Name())

	_, ok = reg.Lookup("c")
	assert.False(t, ok)
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Define("dup", echo))

	assert.Panics(t, func() { reg.MustRegister(Define("dup", echo)) })
}

func TestRegistry_Manifest(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Define("greet", func(ctx Context[greetInput, apiSecrets]) greetOutput { return greetOutput{} }))
	reg.MustRegister(Define("echo", echo))

	manifest, err := reg.Manifest()
	require.NoError(t, err)

	assert.Equal(t, Version, manifest.SDKVersion)
	require.Len(t, manifest.Functions, 2)
	assert.Equal(t, "echo", manifest.Functions[0].Name)

	greet, ok := manifest.Lookup("greet")
	require.True(t, ok)

	var input map[string]any
	require.NoError(t, json.Unmarshal(greet.InputSchema, &input))
	properties, ok := input["properties"].(map[string]any)
	require.True(t, ok, "input schema should describe properties")
	assert.Contains(t, properties, "name")

	var secret map[string]any
	require.NoError(t, json.Unmarshal(greet.SecretSchema, &secret))
	assert.Contains(t, secret["properties"], "token")

	echoFn, ok := manifest.Lookup("echo")
	require.True(t, ok)
	var echoInput map[string]any
	require.NoError(t, json.Unmarshal(echoFn.InputSchema, &echoInput))
	assert.Equal(t, "string", echoInput["type"])
}

func TestDefinition_Types(t *testing.T) {
	d := Define("greet", func(ctx Context[greetInput, apiSecrets]) greetOutput { return greetOutput{} })

	assert.Equal(t, "greetInput", d.InputType().Name())
	assert.Equal(t, "apiSecrets", d.SecretType().Name())
}
