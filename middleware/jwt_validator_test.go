package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/stretchr/testify/assert"
)

// signTestToken builds and signs a JWT carrying sub/exp with the given
// private key, stamping kid into the protected header the way a real
// identity provider would.
func signTestToken(t *testing.T, priv *rsa.PrivateKey, kid string, sub string, exp time.Time) string {
	t.Helper()

	token := jwt.New()
	require.NoError(t, token.Set(jwt.SubjectKey, sub))
	require.NoError(t, token.Set(jwt.ExpirationKey, exp))

	hdrs := jws.NewHeaders()
	require.NoError(t, hdrs.Set(jws.KeyIDKey, kid))

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, priv, jws.WithProtectedHeaders(hdrs)))
	require.NoError(t, err)
	return string(signed)
}

func TestJWTValidator_ValidateAndGetClaims_Success(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pub, err := jwk.FromRaw(&priv.PublicKey)
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, "test-key-id"))
	require.NoError(t, pub.Set(jwk.AlgorithmKey, "RS256"))
	tokenStr := signTestToken(t, priv, "test-key-id", "user-123", time.Now().Add(time.Hour))

	cache := NewJWKSCacheFromSource(&fakeJWKSource{key: pub})
	validator := NewJWTValidatorFromCache(cache)

	claims, err := validator.ValidateAndGetClaims(context.Background(), tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
}

func TestJWTValidator_Validate_ExpiredToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pub, err := jwk.FromRaw(&priv.PublicKey)
	require.NoError(t, err)
	require.NoError(t, pub.Set(jwk.KeyIDKey, "expired-key"))
	require.NoError(t, pub.Set(jwk.AlgorithmKey, "RS256"))

	tokenStr := signTestToken(t, priv, "expired-key", "user-123", time.Now().Add(-time.Hour))

	cache := NewJWKSCacheFromSource(&fakeJWKSource{key: pub})
	validator := NewJWTValidatorFromCache(cache)

	_, err = validator.Validate(context.Background(), tokenStr)
	assert.Error(t, err)
}

func TestJWTValidator_Validate_NoKeyFound(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tokenStr := signTestToken(t, priv, "unknown-key", "user-123", time.Now().Add(time.Hour))

	cache := NewJWKSCacheFromSource(&fakeJWKSource{key: generateTestKey(t, "some-other-key")})
	validator := NewJWTValidatorFromCache(cache)

	_, err = validator.Validate(context.Background(), tokenStr)
	assert.Error(t, err)
}

func TestJWTValidator_Validate_MalformedToken(t *testing.T) {
	cache := NewJWKSCacheFromSource(&fakeJWKSource{key: generateTestKey(t, "k")})
	validator := NewJWTValidatorFromCache(cache)

	_, err := validator.Validate(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}
