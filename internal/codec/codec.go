// Package codec is the CBOR encoding shared by the policy and protocol
// sockets. Encoding is deterministic (Core Deterministic Encoding) so
// identical messages produce identical bytes on the wire.
package codec

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

type (
	Encoder    = cbor.Encoder
	Decoder    = cbor.Decoder
	RawMessage = cbor.RawMessage
)

// NewEncoder returns a stream encoder writing deterministic CBOR to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder reading CBOR items from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Envelope is one framed message on a socket: a kind tag selecting the
// body type, a correlation id, and the encoded body.
type Envelope struct {
	Kind string     `cbor:"kind"`
	ID   string     `cbor:"id,omitempty"`
	Body RawMessage `cbor:"body,omitempty"`
}

// Seal encodes body into an envelope.
func Seal(kind, id string, body any) (Envelope, error) {
	env := Envelope{Kind: kind, ID: id}
	if body == nil {
		return env, nil
	}
	data, err := Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s body: %w", kind, err)
	}
	env.Body = data
	return env, nil
}

// Open decodes the envelope body into v. An empty body leaves v untouched.
func (e Envelope) Open(v any) error {
	if len(e.Body) == 0 {
		return nil
	}
	if err := Unmarshal(e.Body, v); err != nil {
		return fmt.Errorf("decode %s body: %w", e.Kind, err)
	}
	return nil
}
