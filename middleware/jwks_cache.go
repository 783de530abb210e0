package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/NomadCrew/jwkset-resolver/config"
	"github.com/NomadCrew/jwkset-resolver/jwkset"
	"github.com/NomadCrew/jwkset-resolver/logger"
)

// JWKSCache adapts a jwkset.JWKSource into the key-by-ID lookup the JWT
// validator wants, and owns the process-wide singleton so every request
// shares a single decorator stack rather than rebuilding one per call.
type JWKSCache struct {
	source jwkset.JWKSource
}

var (
	jwksCacheInstance *JWKSCache
	jwksCacheOnce     sync.Once
)

// GetJWKSCache builds and caches the singleton JWKSCache from cfg on first
// call; subsequent calls return the same instance regardless of cfg.
func GetJWKSCache(cfg *config.JWKSConfig) *JWKSCache {
	jwksCacheOnce.Do(func() {
		log := logger.GetLogger()
		log.Infow("Initializing JWKS cache",
			"url", cfg.URL,
			"cache_ttl_ms", cfg.CacheTTLMS,
			"refresh_ahead_enabled", cfg.EnableRefreshAhead)

		builder := jwkset.NewBuilder("jwks-middleware").
			WithURL(cfg.URL, jwkset.NewHTTPRetriever(
				time.Duration(cfg.HTTPConnectTimeoutMS)*time.Millisecond,
				time.Duration(cfg.HTTPReadTimeoutMS)*time.Millisecond,
				cfg.HTTPSizeLimitBytes,
				nil,
			), nil).
			WithCache(cfg.CacheTTLMS, time.Duration(cfg.CacheRefreshTimeoutMS)*time.Millisecond)

		if cfg.EnableRetry {
			builder = builder.WithRetry()
		}
		if cfg.EnableOutageTolerance {
			builder = builder.WithOutageTolerance(cfg.OutageToleranceMS)
		}
		if cfg.EnableHealthReporting {
			builder = builder.WithHealthReporting()
		}
		if cfg.EnableRateLimit {
			builder = builder.WithRateLimit(cfg.RateLimitMinIntervalMS)
		}
		if cfg.EnableRefreshAhead {
			builder = builder.WithRefreshAhead(cfg.RefreshAheadMS)
		}

		source, err := builder.Build()
		if err != nil {
			log.Errorw("failed to build JWKS pipeline, falling back to an empty fixed set", "error", err)
			source, _ = jwkset.NewBuilder("jwks-middleware-fallback").
				WithFixedSet(jwkset.NewJWKSet(jwk.NewSet())).
				Build()
		}

		jwksCacheInstance = &JWKSCache{source: source}
	})

	return jwksCacheInstance
}

// NewJWKSCacheFromSource wraps an already-built jwkset.JWKSource directly,
// bypassing the config-driven singleton. Tests use this to inject a fake
// source without touching process-global state.
func NewJWKSCacheFromSource(source jwkset.JWKSource) *JWKSCache {
	return &JWKSCache{source: source}
}

// GetKey returns a key by its ID (kid), refreshing the underlying JWK set
// pipeline if necessary.
func (c *JWKSCache) GetKey(ctx context.Context, kid string) (jwk.Key, error) {
	now := time.Now().UnixMilli()
	return c.source.Select(ctx, now, jwkset.ByKeyID(kid))
}
