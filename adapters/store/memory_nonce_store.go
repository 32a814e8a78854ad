package store

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nftopia/stellar-auth/core"
	"github.com/nftopia/stellar-auth/ports"
)

// NonceSize is the length of issued nonces.
const NonceSize = 32

// DefaultNonceTTL bounds how long an issued-but-never-consumed nonce
// stays consumable. Without it an abandoned challenge would live for
// the life of the process.
const DefaultNonceTTL = 5 * time.Minute

const nonceShardCount = 64

// sweepEvery controls how often Issue triggers a full expiry sweep.
const sweepEvery = 256

// MemoryNonceStore is a single-process implementation of
// ports.NonceStore. The keyspace is split across fixed shards, each
// with its own lock, so operations on the same identity serialize
// while operations on different identities almost never contend.
type MemoryNonceStore struct {
	shards [nonceShardCount]nonceShard
	ttl    time.Duration
	issues atomic.Uint64
}

type nonceShard struct {
	mu      sync.Mutex
	entries map[core.Identity]nonceEntry
}

type nonceEntry struct {
	nonce     []byte
	expiresAt time.Time
}

// NewMemoryNonceStore creates an in-memory nonce store. A ttl of zero
// selects DefaultNonceTTL.
func NewMemoryNonceStore(ttl time.Duration) *MemoryNonceStore {
	if ttl <= 0 {
		ttl = DefaultNonceTTL
	}
	s := &MemoryNonceStore{ttl: ttl}
	for i := range s.shards {
		s.shards[i].entries = make(map[core.Identity]nonceEntry)
	}
	return s
}

// Issue generates a fresh nonce for the identity, replacing any
// outstanding one.
func (s *MemoryNonceStore) Issue(ctx context.Context, id core.Identity) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNonceStore, err)
	}

	shard := s.shard(id)
	shard.mu.Lock()
	shard.entries[id] = nonceEntry{
		nonce:     nonce,
		expiresAt: time.Now().Add(s.ttl),
	}
	shard.mu.Unlock()

	if s.issues.Add(1)%sweepEvery == 0 {
		s.sweep(time.Now())
	}

	out := make([]byte, NonceSize)
	copy(out, nonce)
	return out, nil
}

// Consume compares candidate against the stored nonce under the
// shard lock, so at most one of any number of concurrent Consume
// calls for the same identity can win.
func (s *MemoryNonceStore) Consume(ctx context.Context, id core.Identity, candidate []byte) (bool, error) {
	shard := s.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.entries[id]
	if !ok {
		return false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(shard.entries, id)
		return false, nil
	}
	if subtle.ConstantTimeCompare(entry.nonce, candidate) != 1 {
		return false, nil
	}
	delete(shard.entries, id)
	return true, nil
}

// Len reports the number of outstanding nonces, expired entries not
// yet swept included. Exposed for the outstanding-nonce gauge.
func (s *MemoryNonceStore) Len() int {
	n := 0
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		n += len(shard.entries)
		shard.mu.Unlock()
	}
	return n
}

func (s *MemoryNonceStore) shard(id core.Identity) *nonceShard {
	// Identities are uniformly random public keys, so the leading
	// bytes distribute evenly across shards.
	return &s.shards[binary.BigEndian.Uint32(id[:4])%nonceShardCount]
}

func (s *MemoryNonceStore) sweep(now time.Time) {
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		for id, entry := range shard.entries {
			if now.After(entry.expiresAt) {
				delete(shard.entries, id)
			}
		}
		shard.mu.Unlock()
	}
}

var _ ports.NonceStore = (*MemoryNonceStore)(nil)
