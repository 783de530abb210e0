package jwkset

import "testing"

import "github.com/stretchr/testify/assert"

func TestNoRefresh_NeverRequiresRefresh(t *testing.T) {
	eval := NoRefresh()
	assert.False(t, eval.RequiresRefresh(&JWKSet{}))
}

func TestForceRefresh_AlwaysRequiresRefresh(t *testing.T) {
	eval := ForceRefresh()
	assert.True(t, eval.RequiresRefresh(&JWKSet{}))
	assert.True(t, eval.RequiresRefresh(nil))
}

func TestReferenceComparison_MatchesOnlyPinnedInstance(t *testing.T) {
	pinned := &JWKSet{}
	other := &JWKSet{}
	eval := ReferenceComparison(pinned)

	assert.True(t, eval.RequiresRefresh(pinned))
	assert.False(t, eval.RequiresRefresh(other))
}
