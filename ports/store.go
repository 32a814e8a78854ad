package ports

import (
	"context"
	"time"

	"github.com/nftopia/stellar-auth/core"
)

// NonceStore tracks the single outstanding challenge nonce per
// identity. Implementations must make Issue/Consume for the same
// identity linearizable: two concurrent Consume calls for one nonce
// must never both succeed.
type NonceStore interface {
	// Issue generates a fresh random nonce for the identity,
	// replacing any outstanding one, and returns it.
	Issue(ctx context.Context, id core.Identity) ([]byte, error)

	// Consume atomically compares candidate against the stored nonce.
	// On a match it deletes the entry and returns true. On absence or
	// mismatch it returns false and leaves any stored entry untouched.
	Consume(ctx context.Context, id core.Identity, candidate []byte) (bool, error)
}

// InvalidationStore records revoked session-token IDs until their
// natural expiry.
type InvalidationStore interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
