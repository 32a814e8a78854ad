package core

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Keypair holds an ed25519 signing key and its identity. The private
// key never leaves the process; servers only ever hold identities.
type Keypair struct {
	priv ed25519.PrivateKey
	id   Identity
}

// NewKeypair generates a fresh random keypair.
func NewKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	id, err := IdentityFromBytes(pub)
	if err != nil {
		return nil, err
	}
	return &Keypair{priv: priv, id: id}, nil
}

// KeypairFromSeed derives a keypair deterministically from a 32-byte seed.
func KeypairFromSeed(seed [ed25519.SeedSize]byte) *Keypair {
	priv := ed25519.NewKeyFromSeed(seed[:])
	var id Identity
	copy(id[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{priv: priv, id: id}
}

// Identity returns the public half of the keypair.
func (kp *Keypair) Identity() Identity {
	return kp.id
}

// Address returns the identity's canonical textual form.
func (kp *Keypair) Address() string {
	return kp.id.String()
}

// Sign produces a decorated signature over the given digest.
func (kp *Keypair) Sign(digest [32]byte) DecoratedSignature {
	sig := ed25519.Sign(kp.priv, digest[:])
	var ds DecoratedSignature
	ds.Hint = kp.id.Hint()
	copy(ds.Signature[:], sig)
	return ds
}
