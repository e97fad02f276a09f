package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.tripjournal/internal/identity"
)

const (
	UIDKey   = "uid"
	EmailKey = "email"
)

// TokenVerifier checks bearer tokens. *identity.Provider satisfies it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (identity.Identity, error)
}

// AuthMiddleware verifies the Firebase ID token and sets user context
func AuthMiddleware(verifier TokenVerifier, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with 'Bearer '"})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
			return
		}

		id, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			logger.Warnw("Token verification failed",
				"request_id", c.GetString(RequestIDKey),
				"path", c.Request.URL.Path,
				"code", identity.Code(err),
				"error", err,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": identity.FriendlyMessage(err)})
			return
		}

		c.Set(UIDKey, id.UID)
		c.Set(EmailKey, id.Email)
		c.Next()
	}
}
