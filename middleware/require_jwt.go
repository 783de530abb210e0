package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NomadCrew/jwkset-resolver/logger"
)

// RequireJWT returns a gin middleware that validates the bearer token in
// the Authorization header against validator and, on success, stores the
// subject claim under UserIDKey for downstream handlers.
func RequireJWT(validator Validator) gin.HandlerFunc {
	log := logger.GetLogger()

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := bearerToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed Authorization header"})
			return
		}

		userID, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			log.Debugw("JWT validation failed", "error", err)
			status := http.StatusUnauthorized
			if errors.Is(err, ErrJWKSKeyNotFound) {
				status = http.StatusServiceUnavailable
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "invalid token"})
			return
		}

		c.Set(string(UserIDKey), userID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}
