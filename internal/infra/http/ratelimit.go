package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"coffeeshop/internal/domain"

	"github.com/gin-gonic/gin"
)

// enforceRateLimit applies the configured fixed-window budget keyed by
// route and caller. A limiter failure fails open: losing redis briefly
// should not take drink reads down with it.
func (s *Server) enforceRateLimit(c *gin.Context, routeID, subject string) bool {
	if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
		return true
	}
	key := fmt.Sprintf("route:%s", routeID)
	if subject != "" {
		key += ":subject:" + subject
	} else {
		key += ":ip:" + c.ClientIP()
	}

	decision, err := s.rateLimiter.Allow(c.Request.Context(), key, s.rateLimitRequests, s.rateLimitWindow)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
		return true
	}
	writeRateLimitHeaders(c, decision)
	if !decision.Allowed {
		writeError(c, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}
	return true
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if decision.ResetAt.IsZero() {
		return
	}
	c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	if !decision.Allowed {
		retryAfter := int64(time.Until(decision.ResetAt).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
	}
}
