package http

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftopia/stellar-auth/adapters/store"
	"github.com/nftopia/stellar-auth/adapters/tokenizer"
	"github.com/nftopia/stellar-auth/codec"
	"github.com/nftopia/stellar-auth/core"
	"github.com/nftopia/stellar-auth/internal/ratelimit"
	"github.com/nftopia/stellar-auth/service"
	"github.com/nftopia/stellar-auth/signing"
)

const testNetwork = "stellarauth:test"

func newTestRouter(t *testing.T, limiter *ratelimit.KeyedLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	svc := service.NewAuthService(
		store.NewMemoryNonceStore(0),
		tokenizer.NewJWTTokenizer(key),
		store.NewMemoryStore(),
		nil,
		testNetwork,
	)
	return SetupRouter(svc, limiter)
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func signEnvelopeB64(t *testing.T, envelopeB64 string, kp *core.Keypair) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(envelopeB64)
	require.NoError(t, err)
	env, err := codec.Decode(raw)
	require.NoError(t, err)
	require.NoError(t, signing.Sign(&env, kp, testNetwork))
	signed, err := codec.Encode(env)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(signed)
}

func TestChallengeLoginFlow(t *testing.T) {
	router := newTestRouter(t, nil)
	kp, err := core.NewKeypair()
	require.NoError(t, err)

	w := postJSON(t, router, "/auth/challenge", gin.H{"address": kp.Address()})
	require.Equal(t, http.StatusOK, w.Code)
	challenge := decodeBody(t, w)
	require.Equal(t, testNetwork, challenge["network_tag"])
	envelopeB64, ok := challenge["envelope"].(string)
	require.True(t, ok)

	w = postJSON(t, router, "/auth/login", gin.H{"envelope": signEnvelopeB64(t, envelopeB64, kp)})
	require.Equal(t, http.StatusOK, w.Code)
	tokens := decodeBody(t, w)
	access, ok := tokens["access_token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, tokens["refresh_token"])

	// The access token opens the protected surface.
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, kp.Address(), decodeBody(t, rec)["address"])
}

func TestChallengeRejectsBadAddress(t *testing.T) {
	router := newTestRouter(t, nil)
	w := postJSON(t, router, "/auth/challenge", gin.H{"address": "garbage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// All expected login failures surface as the same 401 body; the
// response must not reveal which check failed.
func TestLoginFailuresAreUniform(t *testing.T) {
	router := newTestRouter(t, nil)
	kp, err := core.NewKeypair()
	require.NoError(t, err)
	intruder, err := core.NewKeypair()
	require.NoError(t, err)

	w := postJSON(t, router, "/auth/challenge", gin.H{"address": kp.Address()})
	require.Equal(t, http.StatusOK, w.Code)
	envelopeB64 := decodeBody(t, w)["envelope"].(string)

	signed := signEnvelopeB64(t, envelopeB64, kp)
	wrongSigner := signEnvelopeB64(t, envelopeB64, intruder)

	// Consume the challenge so a replay of `signed` fails.
	first := postJSON(t, router, "/auth/login", gin.H{"envelope": signed})
	require.Equal(t, http.StatusOK, first.Code)

	attempts := map[string]string{
		"not base64":    "!!!",
		"truncated":     base64.StdEncoding.EncodeToString([]byte{0x01}),
		"wrong version": base64.StdEncoding.EncodeToString([]byte{0x7f, 0x00}),
		"unsigned":      envelopeB64,
		"wrong signer":  wrongSigner,
		"replay":        signed,
	}
	for name, envelope := range attempts {
		w := postJSON(t, router, "/auth/login", gin.H{"envelope": envelope})
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.Equal(t, rejectionMsg, decodeBody(t, w)["error"], name)
	}
}

func TestChallengeRateLimit(t *testing.T) {
	router := newTestRouter(t, ratelimit.New(1, 2, time.Minute))
	kp, err := core.NewKeypair()
	require.NoError(t, err)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := postJSON(t, router, "/auth/challenge", gin.H{"address": kp.Address()})
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/authorize", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/authorize", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	router := newTestRouter(t, nil)
	kp, err := core.NewKeypair()
	require.NoError(t, err)

	w := postJSON(t, router, "/auth/challenge", gin.H{"address": kp.Address()})
	require.Equal(t, http.StatusOK, w.Code)
	envelopeB64 := decodeBody(t, w)["envelope"].(string)

	w = postJSON(t, router, "/auth/login", gin.H{"envelope": signEnvelopeB64(t, envelopeB64, kp)})
	require.Equal(t, http.StatusOK, w.Code)
	refresh := decodeBody(t, w)["refresh_token"].(string)

	w = postJSON(t, router, "/auth/refresh", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decodeBody(t, w)["refresh_token"].(string)

	// The old refresh token is dead after rotation.
	w = postJSON(t, router, "/auth/refresh", gin.H{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, router, "/auth/logout", gin.H{"refresh_token": rotated})
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, router, "/auth/refresh", gin.H{"refresh_token": rotated})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
