package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nftopia/stellar-auth/core"
	"github.com/nftopia/stellar-auth/ports"
)

// consumeScript performs the compare-and-delete atomically on the
// Redis side. Running it as a script is what keeps two concurrent
// consumers of the same nonce from both succeeding.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// RedisNonceStore is a Redis-backed implementation of
// ports.NonceStore, for deployments with more than one instance.
// Nonce TTL is enforced by key expiry.
type RedisNonceStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisNonceStore creates a Redis nonce store. A ttl of zero
// selects DefaultNonceTTL.
func NewRedisNonceStore(client *redis.Client, ttl time.Duration) *RedisNonceStore {
	if ttl <= 0 {
		ttl = DefaultNonceTTL
	}
	return &RedisNonceStore{
		client: client,
		prefix: "stellarauth:nonce:",
		ttl:    ttl,
	}
}

// Issue generates a fresh nonce and stores it under the identity's
// key with a TTL, replacing any outstanding nonce.
func (s *RedisNonceStore) Issue(ctx context.Context, id core.Identity) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNonceStore, err)
	}

	key := s.prefix + id.String()
	if err := s.client.Set(ctx, key, hex.EncodeToString(nonce), s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNonceStore, err)
	}
	return nonce, nil
}

// Consume runs the compare-and-delete script for the identity's key.
func (s *RedisNonceStore) Consume(ctx context.Context, id core.Identity, candidate []byte) (bool, error) {
	key := s.prefix + id.String()
	res, err := consumeScript.Run(ctx, s.client, []string{key}, hex.EncodeToString(candidate)).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", core.ErrNonceStore, err)
	}
	return res == 1, nil
}

var _ ports.NonceStore = (*RedisNonceStore)(nil)
