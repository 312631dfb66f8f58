package middleware

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/must-canteen/internal/errors"
	"github.com/ikkim/must-canteen/pkg/ratelimit"
)

// RateLimit throttles requests per device, falling back to the client IP before
// Identify has run.
func RateLimit(limiter *ratelimit.KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := GetDeviceID(c)
		if !ok {
			key = "ip:" + c.ClientIP()
		}
		if !limiter.Allow(key) {
			GetLoggerFromContext(c).Warn("Rate limit exceeded", map[string]interface{}{
				"key":  key,
				"path": c.Request.URL.Path,
			})
			apperrors.TooManyRequests(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
