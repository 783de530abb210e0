package jwkset

import "time"

// Default tunables. config.LoadConfig's SetDefault calls use the same
// values. NewBuilder applies DefaultCacheTTL and DefaultCacheRefreshTimeout,
// and Build's default HTTPRetriever uses the three HTTP defaults;
// DefaultRefreshAheadTime and DefaultRateLimitMinInterval are not applied by
// Builder, which takes those values from WithRefreshAhead and WithRateLimit.
const (
	// DefaultHTTPConnectTimeout is the connect share of HTTPRetriever's
	// single overall request timeout (connect + read).
	DefaultHTTPConnectTimeout = 500 * time.Millisecond
	// DefaultHTTPReadTimeout is the read share of HTTPRetriever's single
	// overall request timeout (connect + read).
	DefaultHTTPReadTimeout = 500 * time.Millisecond
	// DefaultHTTPSizeLimit caps a JWK set document at 50KiB.
	DefaultHTTPSizeLimit int64 = 50 * 1024
	// DefaultCacheTTL is how long a cached set is considered valid absent
	// any RefreshEvaluator demanding otherwise.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheRefreshTimeout bounds how long a caller will wait on a
	// refresh already in progress before giving up.
	DefaultCacheRefreshTimeout = 15 * time.Second
	// DefaultRefreshAheadTime is how far before expiration RefreshAheadSource
	// schedules its background refresh.
	DefaultRefreshAheadTime = 30 * time.Second
	// DefaultRateLimitMinInterval is the window in which RateLimiter allows
	// at most two calls through to its inner source.
	DefaultRateLimitMinInterval = 30 * time.Second
)
