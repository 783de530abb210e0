package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/NomadCrew/jwkset-resolver/config"
	"github.com/NomadCrew/jwkset-resolver/logger"
)

var (
	// ErrTokenExpired is returned when JWT validation fails due to expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for general token validation failures (signature, format).
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenMissingClaim is returned if a required claim (like 'sub') is missing.
	ErrTokenMissingClaim = errors.New("token missing required claim")
	// ErrJWKSKeyNotFound is returned if the key specified by 'kid' is not found in the JWK set.
	ErrJWKSKeyNotFound = errors.New("jwks key not found")
)

// JWTClaims holds the subset of standard and Supabase-style claims the
// validator extracts from a verified token.
type JWTClaims struct {
	UserID   string
	Email    string
	Username string
}

// Validator defines the interface for validating tokens.
type Validator interface {
	Validate(ctx context.Context, tokenString string) (string, error)
	ValidateAndGetClaims(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// JWTValidator validates JWTs whose signing key is resolved through a
// JWKSCache, i.e. through the jwkset decorator stack.
type JWTValidator struct {
	jwksCache *JWKSCache
}

var _ Validator = (*JWTValidator)(nil)

// NewJWTValidator creates a validator instance using application configuration.
func NewJWTValidator(cfg *config.Config) (Validator, error) {
	if cfg.JWKS.URL == "" {
		return nil, fmt.Errorf("JWT validator configuration error: JWKS.URL must be set")
	}
	return &JWTValidator{jwksCache: GetJWKSCache(&cfg.JWKS)}, nil
}

// NewJWTValidatorFromCache builds a validator directly over an existing
// JWKSCache, letting tests inject a fake source without touching config.
func NewJWTValidatorFromCache(cache *JWKSCache) Validator {
	return &JWTValidator{jwksCache: cache}
}

// Validate parses and validates the token, returning the subject claim.
func (v *JWTValidator) Validate(ctx context.Context, tokenString string) (string, error) {
	claims, err := v.ValidateAndGetClaims(ctx, tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// ValidateAndGetClaims validates the token against its JWKS-resolved key
// and returns its extracted claims.
func (v *JWTValidator) ValidateAndGetClaims(ctx context.Context, tokenString string) (*JWTClaims, error) {
	log := logger.GetLogger()

	kid, alg, err := extractKIDAndAlg(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if kid == "" {
		return nil, fmt.Errorf("%w: token header has no kid", ErrTokenInvalid)
	}

	key, err := v.jwksCache.GetKey(ctx, kid)
	if err != nil {
		log.Warnw("failed to resolve JWK for token", "kid", kid, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrJWKSKeyNotFound, err)
	}

	keyAlg := key.Algorithm()
	headerAlg := jwa.SignatureAlgorithm(alg)
	if alg != "" && keyAlg != jwa.NoSignature && headerAlg.String() != keyAlg.String() {
		log.Warnw("token 'alg' header mismatches JWK algorithm",
			"header_alg", headerAlg.String(), "key_alg", keyAlg.String(), "kid", kid)
	}

	token, err := jwt.Parse([]byte(tokenString), jwt.WithKey(keyAlg, key), jwt.WithValidate(true))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	return extractClaimsFromToken(token)
}

// extractKIDAndAlg parses the JWT header without validation to get key ID and algorithm.
func extractKIDAndAlg(tokenString string) (kid string, alg string, err error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("invalid token format, expected 3 parts, got %d", len(parts))
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to decode token header: %w", err)
	}

	var headerMap map[string]interface{}
	if err := json.Unmarshal(headerBytes, &headerMap); err != nil {
		return "", "", fmt.Errorf("failed to unmarshal token header JSON: %w", err)
	}

	if k, ok := headerMap["kid"].(string); ok {
		kid = k
	}
	if a, ok := headerMap["alg"].(string); ok {
		alg = a
	}
	return kid, alg, nil
}

// extractClaimsFromToken extracts JWTClaims from a validated jwt.Token.
func extractClaimsFromToken(token jwt.Token) (*JWTClaims, error) {
	sub := token.Subject()
	if sub == "" {
		return nil, ErrTokenMissingClaim
	}

	claims := &JWTClaims{UserID: sub}

	if emailVal, ok := token.Get("email"); ok {
		if email, ok := emailVal.(string); ok {
			claims.Email = email
		}
	}
	if usernameVal, ok := token.Get("username"); ok {
		if username, ok := usernameVal.(string); ok {
			claims.Username = username
		}
	}
	if userMetaVal, ok := token.Get("user_metadata"); ok {
		if userMeta, ok := userMetaVal.(map[string]interface{}); ok {
			if username, ok := userMeta["username"].(string); ok && claims.Username == "" {
				claims.Username = username
			}
			if email, ok := userMeta["email"].(string); ok && claims.Email == "" {
				claims.Email = email
			}
		}
	}

	return claims, nil
}
