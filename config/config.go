// Package config loads service configuration from an optional YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "5m" as well as integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds everything the daemon needs to wire itself up.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// NetworkTag is the deployment's signature domain. Two
	// deployments with different tags cannot replay each other's
	// signed envelopes. It must never be empty.
	NetworkTag string `yaml:"networkTag"`

	// Backend selects the nonce/invalidation store: "memory" or "redis".
	Backend string `yaml:"backend"`

	// RedisURL is required for the redis backend and for event
	// publishing; leave empty to disable both.
	RedisURL string `yaml:"redisUrl"`

	// SigningKeyFile is a PEM-encoded ECDSA P-256 key used to sign
	// session tokens. Empty means generate an ephemeral key (tokens
	// won't survive restarts).
	SigningKeyFile string `yaml:"signingKeyFile"`

	NonceTTL   Duration `yaml:"nonceTTL"`
	AccessTTL  Duration `yaml:"accessTTL"`
	RefreshTTL Duration `yaml:"refreshTTL"`

	// Per-identity rate limit on challenge issuance.
	ChallengeRPS   float64 `yaml:"challengeRPS"`
	ChallengeBurst int     `yaml:"challengeBurst"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Listen:         ":9000",
		NetworkTag:     "stellarauth:dev",
		Backend:        "memory",
		NonceTTL:       Duration(5 * time.Minute),
		AccessTTL:      Duration(5 * time.Minute),
		RefreshTTL:     Duration(5 * 24 * time.Hour),
		ChallengeRPS:   1,
		ChallengeBurst: 5,
	}
}

// Load reads the config file at path (if non-empty and present),
// merges it over the defaults and applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
		merge(&cfg, parsed)
	}

	applyEnvOverrides(&cfg)

	if cfg.Backend != "memory" && cfg.Backend != "redis" {
		return cfg, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if cfg.Backend == "redis" && cfg.RedisURL == "" {
		return cfg, fmt.Errorf("redis backend requires redisUrl")
	}
	return cfg, nil
}

func merge(dst *Config, src Config) {
	if src.Listen != "" {
		dst.Listen = src.Listen
	}
	if src.NetworkTag != "" {
		dst.NetworkTag = src.NetworkTag
	}
	if src.Backend != "" {
		dst.Backend = src.Backend
	}
	if src.RedisURL != "" {
		dst.RedisURL = src.RedisURL
	}
	if src.SigningKeyFile != "" {
		dst.SigningKeyFile = src.SigningKeyFile
	}
	if src.NonceTTL > 0 {
		dst.NonceTTL = src.NonceTTL
	}
	if src.AccessTTL > 0 {
		dst.AccessTTL = src.AccessTTL
	}
	if src.RefreshTTL > 0 {
		dst.RefreshTTL = src.RefreshTTL
	}
	if src.ChallengeRPS > 0 {
		dst.ChallengeRPS = src.ChallengeRPS
	}
	if src.ChallengeBurst > 0 {
		dst.ChallengeBurst = src.ChallengeBurst
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STELLARAUTH_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("STELLARAUTH_NETWORK_TAG"); v != "" {
		cfg.NetworkTag = v
	}
	if v := os.Getenv("STELLARAUTH_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("STELLARAUTH_SIGNING_KEY_FILE"); v != "" {
		cfg.SigningKeyFile = v
	}
	if v := os.Getenv("STELLARAUTH_NONCE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.NonceTTL = Duration(d)
		}
	}
	if v := os.Getenv("STELLARAUTH_CHALLENGE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ChallengeRPS = f
		}
	}
}
