package store

import (
	"context"
	"sync"
	"time"

	"github.com/nftopia/stellar-auth/ports"
)

// MemoryStore is an in-memory implementation of the InvalidationStore
// interface, intended for single-instance deployments and tests.
type MemoryStore struct {
	invalidatedTokens map[string]time.Time
	mu                sync.RWMutex
	checks            uint64
}

// NewMemoryStore creates a new in-memory invalidation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invalidatedTokens: make(map[string]time.Time),
	}
}

// InvalidateToken marks a token as invalidated until expiry elapses.
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidatedTokens[tokenID] = time.Now().Add(expiry)
	return nil
}

// IsTokenInvalidated checks if a token is invalidated. Expired
// records are treated as absent and cleaned up opportunistically.
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checks++
	if s.checks%512 == 0 {
		now := time.Now()
		for id, exp := range s.invalidatedTokens {
			if now.After(exp) {
				delete(s.invalidatedTokens, id)
			}
		}
	}

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiryTime) {
		delete(s.invalidatedTokens, tokenID)
		return false, nil
	}
	return true, nil
}

var _ ports.InvalidationStore = (*MemoryStore)(nil)
