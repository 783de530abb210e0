package jwkset

import (
	"strings"
	"time"

	"github.com/NomadCrew/jwkset-resolver/errors"
)

// Builder assembles a JWKSource by composing the decorator stack in its one
// legal order: leaf -> Retry -> Outage -> HealthReporter -> RateLimiter ->
// (Caching | RefreshAhead) -> SelectorWrapper. Each decorator is optional
// except the leaf and the blocking cache, which is always present: the
// specification treats single-flight caching as non-negotiable, only its
// refresh-ahead variant is opt-in.
type Builder struct {
	name string

	// Leaf configuration. Exactly one of Location or FixedSet must be set.
	location  string
	fixedSet  *JWKSet
	retriever ResourceRetriever
	parser    JWKSetParser

	withRetry bool

	outageToleranceMillis int64 // 0 disables the outage fallback

	withHealthReporting bool

	rateLimitMinIntervalMillis int64 // 0 disables the rate limiter

	cacheTTLMillis      int64
	cacheRefreshTimeout time.Duration

	withRefreshAhead   bool
	refreshAheadMillis int64
	scheduledRefresh   bool

	bus *EventBus
}

// NewBuilder starts a Builder named name, used to label emitted events.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:                name,
		cacheTTLMillis:      DefaultCacheTTL.Milliseconds(),
		cacheRefreshTimeout: DefaultCacheRefreshTimeout,
	}
}

// WithURL sets the leaf source to fetch location over HTTP or from the
// local filesystem (file:// or a bare path), using retriever/parser if
// given or sensible defaults otherwise.
func (b *Builder) WithURL(location string, retriever ResourceRetriever, parser JWKSetParser) *Builder {
	b.location = location
	b.retriever = retriever
	b.parser = parser
	return b
}

// WithFixedSet sets the leaf source to a static, in-memory set rather than
// a fetched one.
func (b *Builder) WithFixedSet(set *JWKSet) *Builder {
	b.fixedSet = set
	return b
}

// WithRetry enables a single retry of the leaf fetch on failure.
func (b *Builder) WithRetry() *Builder {
	b.withRetry = true
	return b
}

// WithOutageTolerance enables serving the last-known-good set for up to
// toleranceMillis past the last successful call.
func (b *Builder) WithOutageTolerance(toleranceMillis int64) *Builder {
	b.outageToleranceMillis = toleranceMillis
	return b
}

// WithHealthReporting enables publishing a HealthReport after every call.
func (b *Builder) WithHealthReporting() *Builder {
	b.withHealthReporting = true
	return b
}

// WithRateLimit enables a two-calls-per-minIntervalMillis limiter in front
// of the leaf chain.
func (b *Builder) WithRateLimit(minIntervalMillis int64) *Builder {
	b.rateLimitMinIntervalMillis = minIntervalMillis
	return b
}

// WithCache sets the blocking cache's TTL and wait-for-refresh timeout.
func (b *Builder) WithCache(ttlMillis int64, refreshTimeout time.Duration) *Builder {
	b.cacheTTLMillis = ttlMillis
	b.cacheRefreshTimeout = refreshTimeout
	return b
}

// WithRefreshAhead upgrades the blocking cache to proactively refresh in
// the background once within aheadMillis of expiration.
func (b *Builder) WithRefreshAhead(aheadMillis int64) *Builder {
	b.withRefreshAhead = true
	b.refreshAheadMillis = aheadMillis
	return b
}

// WithScheduledRefresh arms RefreshAheadSource's timer-based mode: every
// successful foreground refresh schedules a one-shot background refresh at
// expirationTime - refreshAheadTime - cacheRefreshTimeout, in addition to
// the always-on, access-triggered lazy refresh. Only meaningful alongside
// WithRefreshAhead.
func (b *Builder) WithScheduledRefresh() *Builder {
	b.scheduledRefresh = true
	return b
}

// CacheForever sets the cache TTL to NeverExpires and disables refresh-ahead:
// a set that never expires has nothing to refresh ahead of.
func (b *Builder) CacheForever() *Builder {
	b.cacheTTLMillis = NeverExpires
	b.withRefreshAhead = false
	b.refreshAheadMillis = 0
	b.scheduledRefresh = false
	return b
}

// WithEventBus attaches bus so callers can subscribe listeners before
// Build assembles the stack. If not called, Build creates a private bus.
func (b *Builder) WithEventBus(bus *EventBus) *Builder {
	b.bus = bus
	return b
}

// Build validates the accumulated options and assembles the JWKSource. It
// returns a distinct, named error for each illegal configuration rather
// than a single generic "invalid builder" message, so a caller's logs
// point directly at the offending option.
func (b *Builder) Build() (JWKSource, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	if b.bus == nil {
		b.bus = NewEventBus()
	}

	var leaf JWKSetSource
	if b.fixedSet != nil {
		leaf = NewMemorySource(b.fixedSet)
	} else {
		retriever := b.retriever
		if retriever == nil {
			if strings.HasPrefix(b.location, "file://") || !strings.Contains(b.location, "://") {
				retriever = FileRetriever{}
			} else {
				retriever = NewHTTPRetriever(DefaultHTTPConnectTimeout, DefaultHTTPReadTimeout, DefaultHTTPSizeLimit, nil)
			}
		}
		leaf = NewURLSource(b.location, retriever, b.parser)
	}

	var chain JWKSetSource = leaf
	if b.withRetry {
		chain = NewRetrySource(b.name, chain, b.bus)
	}
	if b.outageToleranceMillis > 0 {
		chain = NewOutageSource(b.name, chain, b.bus, b.outageToleranceMillis)
	}
	if b.withHealthReporting {
		chain = NewHealthReporter(b.name, chain, b.bus)
	}
	if b.rateLimitMinIntervalMillis > 0 {
		chain = NewRateLimiter(b.name, chain, b.bus, b.rateLimitMinIntervalMillis)
	}

	if b.withRefreshAhead {
		chain = NewRefreshAheadSource(b.name, chain, b.bus, b.cacheTTLMillis, b.cacheRefreshTimeout, b.refreshAheadMillis, b.scheduledRefresh)
	} else {
		chain = NewCachingSource(b.name, chain, b.bus, b.cacheTTLMillis, b.cacheRefreshTimeout)
	}

	return NewSelectorWrapper(chain), nil
}

func (b *Builder) validate() error {
	if b.fixedSet == nil && b.location == "" {
		return errors.ValidationFailed("builder requires either WithURL or WithFixedSet to provide a leaf source", "")
	}
	if b.fixedSet != nil && b.location != "" {
		return errors.ValidationFailed("builder cannot use both WithURL and WithFixedSet for the leaf source", "")
	}
	if b.cacheTTLMillis <= 0 {
		return errors.ValidationFailed("cache TTL must be positive", "")
	}
	if b.cacheRefreshTimeout <= 0 {
		return errors.ValidationFailed("cache refresh timeout must be positive", "")
	}
	if b.outageToleranceMillis < 0 {
		return errors.ValidationFailed("outage tolerance must not be negative", "")
	}
	if b.outageToleranceMillis == NeverExpires && b.cacheTTLMillis == NeverExpires {
		return errors.ValidationFailed("outage tolerance is meaningless when the cache never expires", "")
	}
	if b.rateLimitMinIntervalMillis < 0 {
		return errors.ValidationFailed("rate limit interval must not be negative", "")
	}
	if b.rateLimitMinIntervalMillis > 0 && b.cacheTTLMillis <= b.rateLimitMinIntervalMillis {
		return errors.ValidationFailed("cache TTL must be greater than the rate limit interval", "")
	}
	if b.withRefreshAhead {
		if b.refreshAheadMillis <= 0 {
			return errors.ValidationFailed("refresh-ahead time must be positive when refresh-ahead is enabled", "")
		}
		if b.refreshAheadMillis+b.cacheRefreshTimeout.Milliseconds() > b.cacheTTLMillis {
			return errors.ValidationFailed("refresh-ahead time plus cache refresh timeout must not exceed the cache TTL", "")
		}
	} else if b.scheduledRefresh {
		return errors.ValidationFailed("scheduled refresh requires refresh-ahead to be enabled", "")
	}
	return nil
}
