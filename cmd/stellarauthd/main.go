package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/nftopia/stellar-auth/adapters/events"
	"github.com/nftopia/stellar-auth/adapters/store"
	"github.com/nftopia/stellar-auth/adapters/tokenizer"
	"github.com/nftopia/stellar-auth/config"
	"github.com/nftopia/stellar-auth/internal/metrics"
	"github.com/nftopia/stellar-auth/internal/ratelimit"
	"github.com/nftopia/stellar-auth/ports"
	"github.com/nftopia/stellar-auth/service"
	"github.com/nftopia/stellar-auth/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	signKey, err := loadSigningKey(cfg.SigningKeyFile)
	if err != nil {
		log.Fatalf("Failed to load signing key: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	}

	var nonces ports.NonceStore
	var invalidation ports.InvalidationStore
	switch cfg.Backend {
	case "redis":
		nonces = store.NewRedisNonceStore(redisClient, cfg.NonceTTL.Std())
		invalidation = store.NewRedisStore(redisClient)
	default:
		memNonces := store.NewMemoryNonceStore(cfg.NonceTTL.Std())
		metrics.RegisterOutstandingNonces(memNonces.Len)
		nonces = memNonces
		invalidation = store.NewMemoryStore()
	}

	var eventPub ports.EventPublisher
	if redisClient != nil {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}
		eventPub = events.NewWatermillPublisher(publisher)
	}

	authService := service.NewAuthService(
		nonces,
		tokenizer.NewJWTTokenizer(signKey),
		invalidation,
		eventPub,
		cfg.NetworkTag,
	)
	authService.SetTokenTTLs(cfg.AccessTTL.Std(), cfg.RefreshTTL.Std())

	limiter := ratelimit.New(cfg.ChallengeRPS, cfg.ChallengeBurst, 0)

	router := http.SetupRouter(authService, limiter)

	log.Printf("Listening on %s (network tag %q, backend %s)", cfg.Listen, cfg.NetworkTag, cfg.Backend)
	if err := router.Run(cfg.Listen); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// loadSigningKey reads a PEM EC private key, or generates an
// ephemeral one when no path is configured.
func loadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}
	return x509.ParseECPrivateKey(block.Bytes)
}
