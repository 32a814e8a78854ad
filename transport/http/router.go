package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nftopia/stellar-auth/internal/ratelimit"
	"github.com/nftopia/stellar-auth/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, limiter *ratelimit.KeyedLimiter) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(authService, limiter)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/challenge", handlers.Challenge)
		auth.POST("/login", handlers.Login)
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/me", handlers.Me)
		api.GET("/authorize", handlers.Authorize)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
