package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "PORT", "DATABASE_URL", "SENTRY_DSN", "AUTH_MODE", "FRACTUNE_SEED"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.UsesDatabase())
	assert.False(t, cfg.IsGatewayMode())
	assert.False(t, cfg.IsProduction())
	assert.Zero(t, cfg.DefaultSeed)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/fractune")
	t.Setenv("AUTH_MODE", "gateway")
	t.Setenv("FRACTUNE_SEED", "42")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.UsesDatabase())
	assert.True(t, cfg.IsGatewayMode())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, int64(42), cfg.DefaultSeed)
}

func TestInvalidSeedFallsBack(t *testing.T) {
	t.Setenv("FRACTUNE_SEED", "not-a-number")
	assert.Zero(t, Load().DefaultSeed)
}
