package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearJWKSEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"JWKS_URL", "JWKS_CACHE_TTL_MS", "JWKS_CACHE_REFRESH_TIMEOUT_MS",
		"JWKS_ENABLE_REFRESH_AHEAD", "JWKS_REFRESH_AHEAD_MS",
		"JWKS_ENABLE_OUTAGE_TOLERANCE", "JWKS_OUTAGE_TOLERANCE_MS",
		"JWKS_ENABLE_RATE_LIMIT", "JWKS_RATE_LIMIT_MIN_INTERVAL_MS",
	}
	for _, v := range vars {
		require.NoError(t, os.Unsetenv(v))
	}
}

func TestLoadConfig_RequiresJWKSURL(t *testing.T) {
	clearJWKSEnv(t)
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	clearJWKSEnv(t)
	require.NoError(t, os.Setenv("JWKS_URL", "https://example.com/jwks.json"))
	defer func() { _ = os.Unsetenv("JWKS_URL") }()

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(5*60*1000), cfg.JWKS.CacheTTLMS)
	assert.Equal(t, int64(15*1000), cfg.JWKS.CacheRefreshTimeoutMS)
	assert.True(t, cfg.JWKS.EnableRetry)
	assert.False(t, cfg.JWKS.EnableRefreshAhead)
}

func TestLoadConfig_RejectsRefreshAheadNotLessThanTTL(t *testing.T) {
	clearJWKSEnv(t)
	require.NoError(t, os.Setenv("JWKS_URL", "https://example.com/jwks.json"))
	require.NoError(t, os.Setenv("JWKS_ENABLE_REFRESH_AHEAD", "true"))
	require.NoError(t, os.Setenv("JWKS_REFRESH_AHEAD_MS", "600000"))
	defer func() {
		_ = os.Unsetenv("JWKS_URL")
		_ = os.Unsetenv("JWKS_ENABLE_REFRESH_AHEAD")
		_ = os.Unsetenv("JWKS_REFRESH_AHEAD_MS")
	}()

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_IsDevelopmentIsProduction(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Environment: EnvDevelopment}}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Server.Environment = EnvProduction
	assert.True(t, cfg.IsProduction())
}
