// Package signing computes the domain-separated envelope digest and
// verifies detached signatures against it.
//
// The digest binds three things together: the network tag (so a
// signature produced for one deployment is garbage on every other),
// a fixed purpose string (so the bytes can never collide with any
// other signed structure), and the canonical envelope body encoding.
package signing

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"github.com/nftopia/stellar-auth/codec"
	"github.com/nftopia/stellar-auth/core"
)

// purposeTag domain-separates envelope digests from any other use of
// the network tag.
const purposeTag = "auth-envelope-v1"

// Digest returns the digest clients sign: sha256 over the hashed
// network tag, the purpose tag and the canonical body bytes.
func Digest(networkTag string, body []byte) [32]byte {
	netHash := sha256.Sum256([]byte(networkTag))

	h := sha256.New()
	h.Write(netHash[:])
	h.Write([]byte(purposeTag))
	h.Write(body)

	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// EnvelopeDigest computes the signing digest of an envelope.
func EnvelopeDigest(env core.Envelope, networkTag string) ([32]byte, error) {
	body, err := codec.EncodeBody(env)
	if err != nil {
		return [32]byte{}, err
	}
	return Digest(networkTag, body), nil
}

// Sign appends kp's decorated signature over the envelope body to the
// envelope's signature list.
func Sign(env *core.Envelope, kp *core.Keypair, networkTag string) error {
	digest, err := EnvelopeDigest(*env, networkTag)
	if err != nil {
		return fmt.Errorf("failed to compute signing digest: %w", err)
	}
	env.Signatures = append(env.Signatures, kp.Sign(digest))
	return nil
}

// Verify checks the envelope's detached signature against the claimed
// identity under the given network tag.
//
// Exactly one signature is expected: zero yields core.ErrNoSignature
// and more than one core.ErrTooManySignatures, regardless of whether
// any of them would verify. A cryptographic mismatch is the normal
// false outcome, not an error.
func Verify(env core.Envelope, networkTag string, claimed core.Identity) (bool, error) {
	switch {
	case len(env.Signatures) == 0:
		return false, core.ErrNoSignature
	case len(env.Signatures) > 1:
		return false, core.ErrTooManySignatures
	}

	sig := env.Signatures[0]
	if sig.Hint != claimed.Hint() {
		return false, nil
	}

	digest, err := EnvelopeDigest(env, networkTag)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(claimed.PublicKey(), digest[:], sig.Signature[:]), nil
}
