package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Storage
	// Empty selects the in-memory repository
	DatabaseURL string

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Auth mode
	// - "none": every request is owned by "anonymous"
	// - "gateway": trust X-User-* headers set by an upstream gateway
	AuthMode string

	// Generation
	DefaultSeed int64 // 0 means a fresh seed per request
}

func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		AuthMode:    getEnv("AUTH_MODE", "none"),
		DefaultSeed: getEnvInt64("FRACTUNE_SEED", 0),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	n, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

// IsGatewayMode returns true if running behind an authenticating gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// UsesDatabase reports whether compositions are persisted in SQL
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// IsProduction reports whether the server runs in release mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
