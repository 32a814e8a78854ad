package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftopia/stellar-auth/core"
)

func testSession(t *testing.T) *core.Session {
	t.Helper()
	kp, err := core.NewKeypair()
	require.NoError(t, err)

	now := time.Now().Truncate(time.Second)
	return &core.Session{
		ID:            "session-id",
		Subject:       kp.Identity(),
		IssuedAt:      now,
		AccessExpiry:  now.Add(5 * time.Minute),
		RefreshExpiry: now.Add(120 * time.Hour),
		RefreshID:     "refresh-id",
	}
}

func newTokenizer(t *testing.T) *JWTTokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return &JWTTokenizer{signKey: key}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	j := newTokenizer(t)
	session := testSession(t)

	token, err := j.SessionToAccessToken(session)
	require.NoError(t, err)

	got, err := j.AccessTokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.Subject, got.Subject)
	assert.Equal(t, session.RefreshID, got.RefreshID)
	assert.WithinDuration(t, session.AccessExpiry, got.AccessExpiry, time.Second)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	j := newTokenizer(t)
	session := testSession(t)

	token, err := j.SessionToRefreshToken(session)
	require.NoError(t, err)

	got, err := j.RefreshTokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, session.Subject, got.Subject)
	assert.Equal(t, session.RefreshID, got.RefreshID)
	assert.WithinDuration(t, session.RefreshExpiry, got.RefreshExpiry, time.Second)
}

func TestAudienceIsEnforced(t *testing.T) {
	j := newTokenizer(t)
	session := testSession(t)

	access, err := j.SessionToAccessToken(session)
	require.NoError(t, err)
	refresh, err := j.SessionToRefreshToken(session)
	require.NoError(t, err)

	_, err = j.AccessTokenToSession(refresh)
	assert.Error(t, err)
	_, err = j.RefreshTokenToSession(access)
	assert.Error(t, err)
}

func TestForeignKeyIsRejected(t *testing.T) {
	session := testSession(t)

	issuer := newTokenizer(t)
	verifier := newTokenizer(t)

	token, err := issuer.SessionToAccessToken(session)
	require.NoError(t, err)

	_, err = verifier.AccessTokenToSession(token)
	assert.Error(t, err)
}

func TestGarbageTokenIsRejected(t *testing.T) {
	j := newTokenizer(t)
	_, err := j.AccessTokenToSession("not.a.jwt")
	assert.Error(t, err)
}
