package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nftopia/stellar-auth/codec"
	"github.com/nftopia/stellar-auth/core"
	"github.com/nftopia/stellar-auth/ports"
	"github.com/nftopia/stellar-auth/signing"
)

// AuthService orchestrates the challenge-response flow: it issues
// challenge envelopes, drives a login attempt through its ordered
// checks, and mints session credentials for verified identities.
type AuthService struct {
	nonces    ports.NonceStore
	tokenizer ports.Tokenizer
	store     ports.InvalidationStore
	eventPub  ports.EventPublisher

	networkTag string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService creates a new authentication service. eventPub may
// be nil when no broker is configured.
func NewAuthService(
	nonces ports.NonceStore,
	tokenizer ports.Tokenizer,
	store ports.InvalidationStore,
	eventPub ports.EventPublisher,
	networkTag string,
) *AuthService {
	return &AuthService{
		nonces:     nonces,
		tokenizer:  tokenizer,
		store:      store,
		eventPub:   eventPub,
		networkTag: networkTag,
		accessTTL:  5 * time.Minute,
		refreshTTL: 5 * 24 * time.Hour, // 5 days
	}
}

// SetTokenTTLs overrides the default access and refresh lifetimes.
// Zero values keep the current setting.
func (s *AuthService) SetTokenTTLs(access, refresh time.Duration) {
	if access > 0 {
		s.accessTTL = access
	}
	if refresh > 0 {
		s.refreshTTL = refresh
	}
}

// NetworkTag returns the tag clients must fold into the signing digest.
func (s *AuthService) NetworkTag() string {
	return s.networkTag
}

// CreateChallenge issues a fresh nonce for the identity and returns
// the base64-encoded challenge envelope the client must sign.
func (s *AuthService) CreateChallenge(ctx context.Context, address string) (string, error) {
	id, err := core.ParseIdentity(address)
	if err != nil {
		return "", err
	}

	nonce, err := s.nonces.Issue(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to issue nonce: %w", err)
	}

	env := core.NewChallengeEnvelope(id, nonce)
	encoded, err := codec.Encode(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode challenge envelope: %w", err)
	}
	return base64.StdEncoding.EncodeToString(encoded), nil
}

// Login validates a signed challenge envelope and, on success, mints
// access and refresh tokens for the envelope's source identity.
//
// The checks run in a fixed order: decode, structure, actor/source
// match, signature, nonce consumption. The atomic compare-and-delete
// on the nonce is the commit point and runs last, so any earlier
// failure leaves the nonce consumable and the client can retry
// against the same challenge. A nonce is burned exactly when a fully
// verified envelope consumes it, which is what makes a replay of
// that envelope fail.
func (s *AuthService) Login(ctx context.Context, envelopeB64 string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(envelopeB64)
	if err != nil {
		return "", "", fmt.Errorf("%w: invalid base64", core.ErrMalformed)
	}

	env, err := codec.Decode(raw)
	if err != nil {
		return "", "", err
	}

	op, err := env.ChallengeOperation()
	if err != nil {
		return "", "", err
	}

	if op.Actor.String() != env.Source.String() {
		return "", "", core.ErrIdentityMismatch
	}

	ok, err := signing.Verify(env, s.networkTag, env.Source)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", core.ErrBadSignature
	}

	consumed, err := s.nonces.Consume(ctx, env.Source, op.Value)
	if err != nil {
		return "", "", fmt.Errorf("failed to consume nonce: %w", err)
	}
	if !consumed {
		return "", "", core.ErrNonceMismatch
	}

	access, refresh, session, err := s.mintTokens(env.Source)
	if err != nil {
		return "", "", err
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogin(ctx, session.Subject.String(), session.RefreshID); err != nil {
			// The session is already valid; losing the event is not
			// worth failing the login over.
			log.Printf("warning: failed to publish login event: %v", err)
		}
	}

	return access, refresh, nil
}

// Refresh rotates the refresh token and issues new access and refresh tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshTokenStr string) (string, string, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", err)
	}

	if time.Now().After(session.RefreshExpiry) {
		return "", "", core.ErrTokenExpired
	}

	invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
	if err != nil {
		return "", "", fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return "", "", core.ErrTokenInvalidated
	}

	// Invalidate the old refresh token for the remainder of its life.
	remainingTime := time.Until(session.RefreshExpiry)
	if err := s.store.InvalidateToken(ctx, session.RefreshID, remainingTime); err != nil {
		return "", "", fmt.Errorf("failed to invalidate old token: %w", err)
	}

	access, refresh, _, err := s.mintTokens(session.Subject)
	return access, refresh, err
}

// Logout invalidates a refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshTokenStr string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", err)
	}

	// Even an expired token gets an invalidation record, with a floor
	// TTL to cover clock skew between instances.
	remainingTime := time.Until(session.RefreshExpiry)
	if remainingTime <= 0 {
		remainingTime = time.Hour
	}

	if err := s.store.InvalidateToken(ctx, session.RefreshID, remainingTime); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogout(ctx, session.Subject.String(), session.RefreshID); err != nil {
			// The token is already invalidated in the store, which is
			// the critical part.
			log.Printf("warning: failed to publish logout event: %v", err)
		}
	}
	return nil
}

// ValidateAccessToken parses an access token and checks it against
// expiry and the invalidation store.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if time.Now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	// Invalidating a refresh token takes its access tokens down too.
	if session.RefreshID != "" {
		invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return session, nil
}

func (s *AuthService) mintTokens(subject core.Identity) (string, string, *core.Session, error) {
	now := time.Now()
	session := &core.Session{
		ID:            uuid.New().String(),
		Subject:       subject,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.refreshTTL),
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshID:     uuid.New().String(),
	}

	access, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", core.ErrCredentialIssuance, err)
	}
	refresh, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", core.ErrCredentialIssuance, err)
	}
	return access, refresh, session, nil
}

// IsInternal reports whether a login failure is an internal fault
// rather than an expected rejection. Transport uses it to pick
// between a generic 500 and the uniform authentication failure.
func IsInternal(err error) bool {
	return errors.Is(err, core.ErrNonceStore) || errors.Is(err, core.ErrCredentialIssuance)
}
