package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nftopia/stellar-auth/core"
	"github.com/nftopia/stellar-auth/internal/metrics"
	"github.com/nftopia/stellar-auth/internal/ratelimit"
	"github.com/nftopia/stellar-auth/service"
)

// rejectionMsg is the single message returned for every expected
// login failure. Distinguishing a bad nonce from a bad signature (or
// a decode failure) would hand an attacker an oracle.
const rejectionMsg = "invalid challenge or signature"

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	limiter     *ratelimit.KeyedLimiter
}

// NewAuthHandlers creates new auth handlers. limiter may be nil to
// disable challenge rate limiting.
func NewAuthHandlers(authService *service.AuthService, limiter *ratelimit.KeyedLimiter) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		limiter:     limiter,
	}
}

// Challenge handles the challenge request
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.limiter.Allow(req.Address, time.Now()) {
		metrics.ChallengesThrottled.Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many challenge requests"})
		return
	}

	envelope, err := h.authService.CreateChallenge(c.Request.Context(), req.Address)
	if err != nil {
		if errors.Is(err, core.ErrInvalidIdentity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		return
	}

	metrics.ChallengesIssued.Inc()
	c.JSON(http.StatusOK, gin.H{
		"envelope":    envelope,
		"network_tag": h.authService.NetworkTag(),
	})
}

// Login handles the login request
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Envelope string `json:"envelope" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	accessToken, refreshToken, err := h.authService.Login(c.Request.Context(), req.Envelope)
	if err != nil {
		if service.IsInternal(err) {
			metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
			return
		}
		metrics.Logins.WithLabelValues(metrics.ResultRejected).Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": rejectionMsg})
		return
	}

	metrics.Logins.WithLabelValues(metrics.ResultOK).Inc()
	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    300, // 5 minutes in seconds
	})
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	accessToken, refreshToken, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Failed to refresh tokens"

		switch {
		case errors.Is(err, core.ErrInvalidToken):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid refresh token"
		case errors.Is(err, core.ErrTokenExpired):
			statusCode = http.StatusUnauthorized
			errorMsg = "Refresh token expired"
		case errors.Is(err, core.ErrTokenInvalidated):
			statusCode = http.StatusUnauthorized
			errorMsg = "Refresh token has been invalidated"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    300, // 5 minutes in seconds
	})
}

// Logout handles session logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err := h.authService.Logout(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid refresh token"})
		case errors.Is(err, core.ErrTokenExpired):
			// Even if expired, we'll consider logout successful
			c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns information about the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	// Subject is set by the auth middleware
	address, exists := c.Get("subject")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subject not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": address,
	})
}

// Authorize checks if a user is authorized
func (h *AuthHandlers) Authorize(c *gin.Context) {
	// The auth middleware has already validated the token.
	address, exists := c.Get("subject")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subject not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorized": true,
		"address":    address,
	})
}
