package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userId"

// TokenParser resolves a bearer token to the user id it was issued for.
type TokenParser interface {
	Parse(raw string) (string, error)
}

// UserAuth validates console bearer tokens and injects the userId into the
// context.
func UserAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			slog.Debug("auth rejected", "reason", "missing token", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parts := strings.Fields(raw)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			slog.Debug("auth rejected", "reason", "invalid token format", "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID, err := tokens.Parse(parts[1])
		if err != nil {
			slog.Info("auth rejected", "reason", "token validation failed", "error", err, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the id set by UserAuth, or "" on public routes.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
