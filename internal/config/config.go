package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds process-wide settings. Load reads it from the environment;
// tests construct it directly.
type Config struct {
	AuthDomain    string
	APIAudience   string
	Algorithms    []string
	IssuerURL     string
	JWKSURL       string
	ClockSkewSecs int

	DatabaseURL string
	DBReset     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRequests   int
	RateLimitWindowSecs int

	ListenAddr         string
	CORSAllowedOrigins []string
	LogLevel           string
}

func Load() (Config, error) {
	cfg := Config{
		AuthDomain:         os.Getenv("AUTH_DOMAIN"),
		APIAudience:        os.Getenv("API_AUDIENCE"),
		Algorithms:         splitList(envDefault("ALGORITHMS", "RS256")),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		ListenAddr:         envDefault("LISTEN_ADDR", ":8080"),
		CORSAllowedOrigins: splitList(envDefault("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           envDefault("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.ClockSkewSecs, err = envInt("AUTH_CLOCK_SKEW_SECS", 60); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRequests, err = envInt("RATE_LIMIT_REQUESTS", 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindowSecs, err = envInt("RATE_LIMIT_WINDOW_SECS", 60); err != nil {
		return Config{}, err
	}
	cfg.DBReset = envBool("DB_RESET")

	if err := cfg.finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// finalize validates required settings and derives the issuer and JWKS
// URLs from the auth domain when they are not set explicitly.
func (c *Config) finalize() error {
	if c.AuthDomain == "" {
		return errors.New("AUTH_DOMAIN is required")
	}
	if c.APIAudience == "" {
		return errors.New("API_AUDIENCE is required")
	}
	if len(c.Algorithms) == 0 {
		return errors.New("ALGORITHMS must list at least one accepted algorithm")
	}
	domain := strings.TrimSuffix(c.AuthDomain, "/")
	if c.IssuerURL == "" {
		c.IssuerURL = "https://" + domain + "/"
	}
	if c.JWKSURL == "" {
		c.JWKSURL = "https://" + domain + "/.well-known/jwks.json"
	}
	return nil
}

func envDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
