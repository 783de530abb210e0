// Package config handles loading and validation of application configuration
// from environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/NomadCrew/jwkset-resolver/logger"
	"github.com/spf13/viper"
)

// Environment represents the application's running environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// ServerConfig holds ambient server configuration unrelated to the JWK set
// pipeline itself.
type ServerConfig struct {
	Environment Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port        string      `mapstructure:"PORT" yaml:"port"`
	LogLevel    string      `mapstructure:"LOG_LEVEL" yaml:"log_level"`
}

// JWKSConfig holds every tunable the Builder exposes, loaded from the
// environment so deployments can adjust cache behavior without a rebuild.
type JWKSConfig struct {
	URL string `mapstructure:"URL" yaml:"url"`

	HTTPConnectTimeoutMS int   `mapstructure:"HTTP_CONNECT_TIMEOUT_MS" yaml:"http_connect_timeout_ms"`
	HTTPReadTimeoutMS    int   `mapstructure:"HTTP_READ_TIMEOUT_MS" yaml:"http_read_timeout_ms"`
	HTTPSizeLimitBytes   int64 `mapstructure:"HTTP_SIZE_LIMIT_BYTES" yaml:"http_size_limit_bytes"`

	CacheTTLMS             int64 `mapstructure:"CACHE_TTL_MS" yaml:"cache_ttl_ms"`
	CacheRefreshTimeoutMS  int64 `mapstructure:"CACHE_REFRESH_TIMEOUT_MS" yaml:"cache_refresh_timeout_ms"`

	EnableRetry bool `mapstructure:"ENABLE_RETRY" yaml:"enable_retry"`

	EnableOutageTolerance bool  `mapstructure:"ENABLE_OUTAGE_TOLERANCE" yaml:"enable_outage_tolerance"`
	OutageToleranceMS     int64 `mapstructure:"OUTAGE_TOLERANCE_MS" yaml:"outage_tolerance_ms"`

	EnableHealthReporting bool `mapstructure:"ENABLE_HEALTH_REPORTING" yaml:"enable_health_reporting"`

	EnableRateLimit        bool  `mapstructure:"ENABLE_RATE_LIMIT" yaml:"enable_rate_limit"`
	RateLimitMinIntervalMS int64 `mapstructure:"RATE_LIMIT_MIN_INTERVAL_MS" yaml:"rate_limit_min_interval_ms"`

	EnableRefreshAhead bool  `mapstructure:"ENABLE_REFRESH_AHEAD" yaml:"enable_refresh_ahead"`
	RefreshAheadMS     int64 `mapstructure:"REFRESH_AHEAD_MS" yaml:"refresh_ahead_ms"`
}

// Config is the top-level configuration tree.
type Config struct {
	Server ServerConfig `mapstructure:"SERVER" yaml:"server"`
	JWKS   JWKSConfig   `mapstructure:"JWKS" yaml:"jwks"`
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables using Viper,
// sets default values matching the Builder's own defaults, binds
// environment variables to config struct fields, unmarshals the
// configuration, and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.LOG_LEVEL", "info")

	v.SetDefault("JWKS.HTTP_CONNECT_TIMEOUT_MS", 500)
	v.SetDefault("JWKS.HTTP_READ_TIMEOUT_MS", 500)
	v.SetDefault("JWKS.HTTP_SIZE_LIMIT_BYTES", 50*1024)
	v.SetDefault("JWKS.CACHE_TTL_MS", 5*60*1000)
	v.SetDefault("JWKS.CACHE_REFRESH_TIMEOUT_MS", 15*1000)
	v.SetDefault("JWKS.ENABLE_RETRY", true)
	v.SetDefault("JWKS.ENABLE_OUTAGE_TOLERANCE", true)
	v.SetDefault("JWKS.OUTAGE_TOLERANCE_MS", 30*60*1000)
	v.SetDefault("JWKS.ENABLE_HEALTH_REPORTING", true)
	v.SetDefault("JWKS.ENABLE_RATE_LIMIT", true)
	v.SetDefault("JWKS.RATE_LIMIT_MIN_INTERVAL_MS", 30*1000)
	v.SetDefault("JWKS.ENABLE_REFRESH_AHEAD", false)
	v.SetDefault("JWKS.REFRESH_AHEAD_MS", 30*1000)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][2]string{
		{"SERVER.ENVIRONMENT", "SERVER_ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.LOG_LEVEL", "LOG_LEVEL"},
		{"JWKS.URL", "JWKS_URL"},
		{"JWKS.HTTP_CONNECT_TIMEOUT_MS", "JWKS_HTTP_CONNECT_TIMEOUT_MS"},
		{"JWKS.HTTP_READ_TIMEOUT_MS", "JWKS_HTTP_READ_TIMEOUT_MS"},
		{"JWKS.HTTP_SIZE_LIMIT_BYTES", "JWKS_HTTP_SIZE_LIMIT_BYTES"},
		{"JWKS.CACHE_TTL_MS", "JWKS_CACHE_TTL_MS"},
		{"JWKS.CACHE_REFRESH_TIMEOUT_MS", "JWKS_CACHE_REFRESH_TIMEOUT_MS"},
		{"JWKS.ENABLE_RETRY", "JWKS_ENABLE_RETRY"},
		{"JWKS.ENABLE_OUTAGE_TOLERANCE", "JWKS_ENABLE_OUTAGE_TOLERANCE"},
		{"JWKS.OUTAGE_TOLERANCE_MS", "JWKS_OUTAGE_TOLERANCE_MS"},
		{"JWKS.ENABLE_HEALTH_REPORTING", "JWKS_ENABLE_HEALTH_REPORTING"},
		{"JWKS.ENABLE_RATE_LIMIT", "JWKS_ENABLE_RATE_LIMIT"},
		{"JWKS.RATE_LIMIT_MIN_INTERVAL_MS", "JWKS_RATE_LIMIT_MIN_INTERVAL_MS"},
		{"JWKS.ENABLE_REFRESH_AHEAD", "JWKS_ENABLE_REFRESH_AHEAD"},
		{"JWKS.REFRESH_AHEAD_MS", "JWKS_REFRESH_AHEAD_MS"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	env := v.GetString("SERVER.ENVIRONMENT")
	log.Infow("Configuration loaded",
		"environment", env,
		"server_port", v.GetString("SERVER.PORT"),
		"jwks_url", v.GetString("JWKS.URL"),
		"cache_ttl_ms", v.GetInt64("JWKS.CACHE_TTL_MS"),
		"refresh_ahead_enabled", v.GetBool("JWKS.ENABLE_REFRESH_AHEAD"),
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("Configuration validated successfully")
	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config) error {
	if cfg.JWKS.URL == "" {
		return fmt.Errorf("JWKS.URL must be set")
	}
	if cfg.JWKS.CacheTTLMS <= 0 {
		return fmt.Errorf("JWKS.CACHE_TTL_MS must be positive")
	}
	if cfg.JWKS.CacheRefreshTimeoutMS <= 0 {
		return fmt.Errorf("JWKS.CACHE_REFRESH_TIMEOUT_MS must be positive")
	}
	if cfg.JWKS.EnableRefreshAhead && cfg.JWKS.RefreshAheadMS >= cfg.JWKS.CacheTTLMS {
		return fmt.Errorf("JWKS.REFRESH_AHEAD_MS must be less than JWKS.CACHE_TTL_MS")
	}
	if cfg.JWKS.EnableOutageTolerance && cfg.JWKS.OutageToleranceMS <= 0 {
		return fmt.Errorf("JWKS.OUTAGE_TOLERANCE_MS must be positive when outage tolerance is enabled")
	}
	if cfg.JWKS.EnableRateLimit && cfg.JWKS.RateLimitMinIntervalMS <= 0 {
		return fmt.Errorf("JWKS.RATE_LIMIT_MIN_INTERVAL_MS must be positive when rate limiting is enabled")
	}
	return nil
}
