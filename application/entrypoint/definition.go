package entrypoint

import (
	"fmt"
	"reflect"
)

// Descriptor is a registered export: everything the adapter needs to run one business
// function. Descriptors are built with Define.
type Descriptor interface {
	Name() string
	InputType() reflect.Type
	SecretType() reflect.Type
	bind(input, secret string) (invocation, error)
}

// invocation is a decoded call, ready to run once.
type invocation interface {
	invoke()
	encode() (string, error)
}

// Definition binds a business function to its codecs.
type Definition[I any, S any, O any] struct {
	fn        Func[I, S, O]
	decodeIn  Decoder[I]
	decodeSec Decoder[S]
	encodeOut Encoder[O]
	name      string
}

// Define creates a definition with JSON codecs for input, secrets and output.
func Define[I any, S any, O any](name string, fn Func[I, S, O]) *Definition[I, S, O] {
	return &Definition[I, S, O]{
		name:      name,
		fn:        fn,
		decodeIn:  JSONDecoder[I],
		decodeSec: JSONDecoder[S],
		encodeOut: JSONEncoder[O],
	}
}

// WithInputDecoder replaces the input decoder.
func (d *Definition[I, S, O]) WithInputDecoder(dec Decoder[I]) *Definition[I, S, O] {
	d.decodeIn = dec
	return d
}

// WithSecretDecoder replaces the secret decoder.
func (d *Definition[I, S, O]) WithSecretDecoder(dec Decoder[S]) *Definition[I, S, O] {
	d.decodeSec = dec
	return d
}

// WithOutputEncoder replaces the output encoder.
func (d *Definition[I, S, O]) WithOutputEncoder(enc Encoder[O]) *Definition[I, S, O] {
	d.encodeOut = enc
	return d
}

// Validated wraps both decoders with ValidatingDecoder.
func (d *Definition[I, S, O]) Validated() *Definition[I, S, O] {
	d.decodeIn = ValidatingDecoder(d.decodeIn)
	d.decodeSec = ValidatingDecoder(d.decodeSec)
	return d
}

func (d *Definition[I, S, O]) Name() string { return d.name }

func (d *Definition[I, S, O]) InputType() reflect.Type {
	return reflect.TypeFor[I]()
}

func (d *Definition[I, S, O]) SecretType() reflect.Type {
	return reflect.TypeFor[S]()
}

// bind decodes the secret, then the input.
func (d *Definition[I, S, O]) bind(input, secret string) (invocation, error) {
	secrets, err := d.decodeSec(secret)
	if err != nil {
		return nil, fmt.Errorf("secret: %w", err)
	}
	in, err := d.decodeIn(input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	return &call[I, S, O]{def: d, ctx: Context[I, S]{Input: in, Secrets: secrets}}, nil
}

type call[I any, S any, O any] struct {
	def *Definition[I, S, O]
	ctx Context[I, S]
	out O
}

func (c *call[I, S, O]) invoke() {
	c.out = c.def.fn(c.ctx)
}

func (c *call[I, S, O]) encode() (string, error) {
	return c.def.encodeOut(c.out)
}
