package jwkset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_RequiresLeafSource(t *testing.T) {
	_, err := NewBuilder("test").Build()
	assert.Error(t, err)
}

func TestBuilder_RejectsBothURLAndFixedSet(t *testing.T) {
	_, err := NewBuilder("test").
		WithURL("https://example.com/jwks.json", nil, nil).
		WithFixedSet(newTestSet(t, "a")).
		Build()
	assert.Error(t, err)
}

func TestBuilder_RejectsNonPositiveCacheTTL(t *testing.T) {
	_, err := NewBuilder("test").
		WithFixedSet(newTestSet(t, "a")).
		WithCache(0, time.Second).
		Build()
	assert.Error(t, err)
}

func TestBuilder_RejectsRefreshAheadNotLessThanTTL(t *testing.T) {
	_, err := NewBuilder("test").
		WithFixedSet(newTestSet(t, "a")).
		WithCache(1000, time.Second).
		WithRefreshAhead(1000).
		Build()
	assert.Error(t, err)
}

func TestBuilder_BuildsWorkingFixedSetSource(t *testing.T) {
	source, err := NewBuilder("test").
		WithFixedSet(newTestSet(t, "a")).
		WithCache(1000, time.Second).
		Build()
	require.NoError(t, err)

	key, err := source.Select(context.Background(), 0, ByKeyID("a"))
	require.NoError(t, err)
	assert.Equal(t, "a", key.KeyID())
	assert.NoError(t, source.Close())
}

func TestBuilder_BuildsFullDecoratorStack(t *testing.T) {
	source, err := NewBuilder("test").
		WithFixedSet(newTestSet(t, "a")).
		WithRetry().
		WithOutageTolerance(60000).
		WithHealthReporting().
		WithRateLimit(1000).
		WithCache(5000, time.Second).
		Build()
	require.NoError(t, err)
	defer func() { _ = source.Close() }()

	key, err := source.Select(context.Background(), 0, ByKeyID("a"))
	require.NoError(t, err)
	assert.Equal(t, "a", key.KeyID())
}

func TestBuilder_RejectsRateLimitIntervalNotLessThanCacheTTL(t *testing.T) {
	_, err := NewBuilder("test").
		WithFixedSet(newTestSet(t, "a")).
		WithCache(1000, time.Second).
		WithRateLimit(1000).
		Build()
	assert.Error(t, err)
}

func TestBuilder_RejectsRefreshAheadTooCloseToTTLWithRefreshTimeout(t *testing.T) {
	// refreshAhead (400ms) + cacheRefreshTimeout (700ms) exceeds the TTL
	// (1000ms), even though refreshAhead alone is less than the TTL.
	_, err := NewBuilder("test").
		WithFixedSet(newTestSet(t, "a")).
		WithCache(1000, 700*time.Millisecond).
		WithRefreshAhead(400).
		Build()
	assert.Error(t, err)
}

func TestBuilder_RejectsInfiniteOutageToleranceWithInfiniteCache(t *testing.T) {
	_, err := NewBuilder("test").
		WithFixedSet(newTestSet(t, "a")).
		CacheForever().
		WithOutageTolerance(NeverExpires).
		Build()
	assert.Error(t, err)
}

func TestBuilder_CacheForeverBuildsWorkingSource(t *testing.T) {
	source, err := NewBuilder("test").
		WithFixedSet(newTestSet(t, "a")).
		CacheForever().
		Build()
	require.NoError(t, err)
	defer func() { _ = source.Close() }()

	key, err := source.Select(context.Background(), 0, ByKeyID("a"))
	require.NoError(t, err)
	assert.Equal(t, "a", key.KeyID())
}

func TestBuilder_CacheForeverDisablesRefreshAhead(t *testing.T) {
	b := NewBuilder("test").
		WithFixedSet(newTestSet(t, "a")).
		WithRefreshAhead(100).
		WithCache(1000, time.Second).
		CacheForever()

	assert.False(t, b.withRefreshAhead)
	assert.Equal(t, NeverExpires, b.cacheTTLMillis)
}
