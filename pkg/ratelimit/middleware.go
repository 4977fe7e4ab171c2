package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"ticketforge/internal/shared/utils/response"
	"ticketforge/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware enforces the sliding-window limiter per client IP.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limitType := getRateLimitType(c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			// A broken limiter must not take the API down with it.
			logger.GetDefault().ErrorWithContext(c.Request.Context(),
				"rate limit check failed", err, map[string]interface{}{"ip": clientIP})
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			logger.GetDefault().LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.Contains(path, "/admin/"), strings.Contains(path, "/oracle/"):
		return RateLimitTypeAdmin
	case strings.Contains(path, "/listings"), strings.Contains(path, "/tiers"),
		strings.Contains(path, "/tickets"):
		return RateLimitTypePublic
	default:
		return RateLimitTypeDefault
	}
}
