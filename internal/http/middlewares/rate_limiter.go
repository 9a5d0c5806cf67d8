package middlewares

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/storefront/catalogapi/internal/ratelimit"
)

type RateLimiter struct {
	store    ratelimit.Store
	limit    int
	window   time.Duration
	log      *slog.Logger
	rejected prometheus.Counter
	now      func() time.Time
}

// NewRateLimiter allows limit requests per key per window. rejected may be nil.
func NewRateLimiter(store ratelimit.Store, limit int, window time.Duration, log *slog.Logger, rejected prometheus.Counter) *RateLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RateLimiter{
		store:    store,
		limit:    limit,
		window:   window,
		log:      log,
		rejected: rejected,
		now:      time.Now,
	}
}

// Middleware returns a gin.HandlerFunc that enforces the limit for a derived key.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		hit, err := rl.store.Hit(c.Request.Context(), key, rl.window)
		if err != nil {
			// the limiter must never take the API down with it
			rl.log.WarnContext(c.Request.Context(), "rate_limit_store_error", "err", err, "key", key)
			c.Next()
			return
		}

		remaining := rl.limit - hit.Count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if hit.Count > rl.limit {
			retryAfter := hit.RetryAfter(rl.now())
			if rl.rejected != nil {
				rl.rejected.Inc()
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorBody{
				Message:    "Too many requests from this IP, please try again later.",
				RetryAfter: retryAfter,
			})
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// gin's ClientIP respects X-Forwarded-For / X-Real-IP when proxies are trusted.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}
