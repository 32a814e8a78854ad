package core

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// identityVersion is the base58check version byte prefixed to every
// encoded identity. Changing it invalidates all existing addresses.
const identityVersion = 0x35

const checksumSize = 4

// Identity is a raw ed25519 public key. It is the self-certifying
// client identifier: proving control of the matching private key is
// the whole of authentication, no account registry is consulted.
type Identity [ed25519.PublicKeySize]byte

// IdentityFromBytes copies b into an Identity, rejecting wrong lengths.
func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != ed25519.PublicKeySize {
		return id, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrInvalidIdentity, ed25519.PublicKeySize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ParseIdentity decodes the canonical textual form produced by String.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	raw, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	if len(raw) != 1+ed25519.PublicKeySize+checksumSize {
		return id, fmt.Errorf("%w: decoded length %d", ErrInvalidIdentity, len(raw))
	}
	if raw[0] != identityVersion {
		return id, fmt.Errorf("%w: unknown version byte 0x%02x", ErrInvalidIdentity, raw[0])
	}
	payload := raw[:1+ed25519.PublicKeySize]
	if !bytes.Equal(raw[1+ed25519.PublicKeySize:], checksum(payload)) {
		return id, fmt.Errorf("%w: checksum mismatch", ErrInvalidIdentity)
	}
	copy(id[:], payload[1:])
	return id, nil
}

// String returns the canonical textual encoding: base58 of
// version byte ‖ public key ‖ 4-byte double-SHA256 checksum.
func (id Identity) String() string {
	payload := make([]byte, 0, 1+ed25519.PublicKeySize+checksumSize)
	payload = append(payload, identityVersion)
	payload = append(payload, id[:]...)
	payload = append(payload, checksum(payload)...)
	return base58.Encode(payload)
}

// PublicKey returns the identity as an ed25519 public key.
func (id Identity) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(id[:])
}

// Hint returns the trailing four bytes of the public key, used to tag
// decorated signatures with their signer.
func (id Identity) Hint() SignatureHint {
	var h SignatureHint
	copy(h[:], id[len(id)-len(h):])
	return h
}

// IsZero reports whether the identity is the all-zero key.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumSize]
}
