package jwkset

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRSAPublicKey() *rsa.PublicKey {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return &priv.PublicKey
}

type fakeSelectSource struct {
	key jwk.Key
	err error
}

func (f *fakeSelectSource) Select(_ context.Context, _ int64, selector JWKSelector) (jwk.Key, error) {
	if f.err != nil {
		return nil, f.err
	}
	set := newTestSetFromKey(f.key)
	if key, ok := selector(set); ok {
		return key, nil
	}
	return nil, errors.New("no match")
}

func (f *fakeSelectSource) Close() error { return nil }

func newTestSetFromKey(key jwk.Key) *JWKSet {
	set := jwk.NewSet()
	_ = set.AddKey(key)
	return NewJWKSet(set)
}

func TestFailoverSource_UsesPrimaryWhenHealthy(t *testing.T) {
	primary := &fakeSelectSource{key: newTestKeyStandalone("a")}
	secondary := &fakeSelectSource{key: newTestKeyStandalone("b")}
	failover := NewFailoverSource("test", primary, secondary, NewEventBus())

	key, err := failover.Select(context.Background(), 0, ByKeyID("a"))
	require.NoError(t, err)
	assert.Equal(t, "a", key.KeyID())
}

func TestFailoverSource_FallsBackToSecondaryOnPrimaryFailure(t *testing.T) {
	primary := &fakeSelectSource{err: errors.New("primary down")}
	secondary := &fakeSelectSource{key: newTestKeyStandalone("b")}
	failover := NewFailoverSource("test", primary, secondary, NewEventBus())

	key, err := failover.Select(context.Background(), 0, ByKeyID("b"))
	require.NoError(t, err)
	assert.Equal(t, "b", key.KeyID())
}

func TestFailoverSource_ReturnsSecondaryErrorWhenBothFail(t *testing.T) {
	primary := &fakeSelectSource{err: errors.New("primary down")}
	secondary := &fakeSelectSource{err: errors.New("secondary down")}
	failover := NewFailoverSource("test", primary, secondary, NewEventBus())

	_, err := failover.Select(context.Background(), 0, ByKeyID("a"))
	assert.EqualError(t, err, "secondary down")
}

func newTestKeyStandalone(kid string) jwk.Key {
	key, _ := jwk.FromRaw(mustRSAPublicKey())
	_ = key.Set(jwk.KeyIDKey, kid)
	return key
}
