package jwkset

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/NomadCrew/jwkset-resolver/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsTwoPerInterval(t *testing.T) {
	inner := &countingSource{set: newTestSet(t, "a")}
	limiter := NewRateLimiter("test", inner, NewEventBus(), 1000)

	_, err := limiter.Get(NoRefresh(), 0, context.Background())
	require.NoError(t, err)
	_, err = limiter.Get(NoRefresh(), 1, context.Background())
	require.NoError(t, err)

	_, err = limiter.Get(NoRefresh(), 2, context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsRateLimitReached(err))

	assert.EqualValues(t, 2, atomic.LoadInt32(&inner.calls))
}

func TestRateLimiter_ResetsAfterWindow(t *testing.T) {
	inner := &countingSource{set: newTestSet(t, "a")}
	limiter := NewRateLimiter("test", inner, NewEventBus(), 1000)

	_, _ = limiter.Get(NoRefresh(), 0, context.Background())
	_, _ = limiter.Get(NoRefresh(), 1, context.Background())
	_, err := limiter.Get(NoRefresh(), 1000, context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&inner.calls))
}
