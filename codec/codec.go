// Package codec implements the versioned binary wire format for
// authentication envelopes.
//
// A serialized envelope is a one-byte format version tag followed by a
// CBOR body encoded with Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items. Same logical envelope always produces identical bytes, which
// is what makes hash-based detached signatures verifiable.
//
// Decoding is strict: unknown format versions, unknown fields,
// duplicate map keys and trailing bytes are all rejected rather than
// ignored. Adding, removing or reordering fields requires a new
// version tag.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/nftopia/stellar-auth/core"
)

// FormatV1 is the only envelope format version in existence.
const FormatV1 byte = 0x01

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// A forged envelope must not be able to smuggle data past the
		// signature by duplicating or appending fields, so decoding
		// rejects anything the format does not name.
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode serializes the full envelope, signatures included.
func Encode(env core.Envelope) ([]byte, error) {
	body, err := encMode.Marshal(toWireEnvelope(env))
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return append([]byte{FormatV1}, body...), nil
}

// EncodeBody serializes the envelope without its signature list. The
// result is the payload covered by every detached signature.
func EncodeBody(env core.Envelope) ([]byte, error) {
	body, err := encMode.Marshal(toWireBody(env))
	if err != nil {
		return nil, fmt.Errorf("failed to encode envelope body: %w", err)
	}
	return append([]byte{FormatV1}, body...), nil
}

// Decode is the exact left inverse of Encode. It fails with
// core.ErrUnsupportedVersion on an unknown format tag and with
// core.ErrMalformed on anything else it cannot round-trip, including
// unconsumed trailing bytes.
func Decode(data []byte) (core.Envelope, error) {
	if len(data) < 2 {
		return core.Envelope{}, fmt.Errorf("%w: %d bytes", core.ErrMalformed, len(data))
	}
	if data[0] != FormatV1 {
		return core.Envelope{}, fmt.Errorf("%w: tag 0x%02x", core.ErrUnsupportedVersion, data[0])
	}

	var wire wireEnvelope
	if err := decMode.Unmarshal(data[1:], &wire); err != nil {
		return core.Envelope{}, fmt.Errorf("%w: %v", core.ErrMalformed, err)
	}
	return fromWireEnvelope(wire)
}
