package jwkset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutageSource_ServesLastGoodOnFailure(t *testing.T) {
	inner := &toggleSource{set: newTestSet(t, "a")}
	outage := NewOutageSource("test", inner, NewEventBus(), 10000)

	set1, err := outage.Get(NoRefresh(), 0, context.Background())
	require.NoError(t, err)

	inner.fail = true
	served, err := outage.Get(NoRefresh(), 100, context.Background())
	require.NoError(t, err)
	assert.Equal(t, set1.Len(), served.Len())
	assert.False(t, set1.Same(served), "outage source must clone, not alias, the served set")
}

func TestOutageSource_GivesUpPastToleranceWindow(t *testing.T) {
	inner := &toggleSource{set: newTestSet(t, "a")}
	outage := NewOutageSource("test", inner, NewEventBus(), 1000)

	_, err := outage.Get(NoRefresh(), 0, context.Background())
	require.NoError(t, err)

	inner.fail = true
	_, err = outage.Get(NoRefresh(), 1001, context.Background())
	assert.Error(t, err)
}

func TestOutageSource_NoFallbackWithoutPriorSuccess(t *testing.T) {
	inner := &toggleSource{fail: true}
	outage := NewOutageSource("test", inner, NewEventBus(), 10000)

	_, err := outage.Get(NoRefresh(), 0, context.Background())
	assert.Error(t, err)
}

// TestOutageSource_ForceRefreshRejectsStaleClone verifies a caller that
// demands a refresh (e.g. a scheduled refresh-ahead task) gets the
// original failure propagated instead of a last-known-good clone: masking
// a forced-refresh failure as a success would defeat the caller's purpose.
func TestOutageSource_ForceRefreshRejectsStaleClone(t *testing.T) {
	inner := &toggleSource{set: newTestSet(t, "a")}
	outage := NewOutageSource("test", inner, NewEventBus(), 10000)

	_, err := outage.Get(NoRefresh(), 0, context.Background())
	require.NoError(t, err)

	inner.fail = true
	_, err = outage.Get(ForceRefresh(), 100, context.Background())
	assert.Error(t, err)
}

// toggleSource returns set normally, or an error once fail is set.
type toggleSource struct {
	set  *JWKSet
	fail bool
}

func (s *toggleSource) Get(_ RefreshEvaluator, _ int64, _ context.Context) (*JWKSet, error) {
	if s.fail {
		return nil, errors.New("upstream down")
	}
	return s.set, nil
}

func (s *toggleSource) Close() error { return nil }
