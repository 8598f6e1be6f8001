package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"lxrose/internal/ratelimit"
)

// RateLimit rejects a client IP with 429 once it exceeds l for scope. A
// limiter backend failure lets the request through.
func RateLimit(l ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}
		if !ok {
			slog.Info("rate limited", "scope", scope, "ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
