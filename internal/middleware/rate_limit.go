package middleware

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/boomchecker/moderation-gateway/internal/metrics"
	"github.com/boomchecker/moderation-gateway/internal/ratelimit"
)

// Limiter admits or rejects a request for a client key
type Limiter interface {
	Allow(key string) (ratelimit.Info, error)
}

// RateLimit enforces the per-client request budget keyed by client IP.
// It runs before authentication so unauthenticated floods are throttled too.
func RateLimit(limiter Limiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.ClientIP()

		info, err := limiter.Allow(clientID)
		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))

		if err != nil {
			var limitErr *ratelimit.LimitError
			if errors.As(err, &limitErr) {
				c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(limitErr)))
			}

			m.RateLimitRejected()
			zerolog.Ctx(c.Request.Context()).Warn().
				Str("client_ip", clientID).
				Str("path", c.Request.URL.Path).
				Msg("Rate limit exceeded")

			RespondError(c, err)
			return
		}

		c.Next()
	}
}

// retryAfterSeconds rounds up to whole seconds, minimum 1
func retryAfterSeconds(err *ratelimit.LimitError) int {
	seconds := int(math.Ceil(err.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
