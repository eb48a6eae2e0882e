package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"screener-backend/internal/shared/ratelimit"
)

const defaultRateLimitGroup = "DEFAULT"

// RateLimitRule caps requests per fixed window for one route group.
type RateLimitRule struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig wires a counter store and per-group rules into middleware.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Store        ratelimit.Store
}

// RateLimit enforces fixed-window quotas keyed by user (falling back to
// client IP). The counter store is injected so deployments with multiple
// instances can share state through Redis.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Store == nil {
		cfg.Store = ratelimit.NewMemoryStore(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok || rule.Limit <= 0 || rule.Window <= 0 {
			c.Next()
			return
		}
		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}
		key := principal + "|" + group

		count, resetAt, err := cfg.Store.Incr(c.Request.Context(), key, rule.Window)
		if err != nil {
			// A broken counter store should not take the API down.
			c.Next()
			return
		}
		if count <= rule.Limit {
			c.Next()
			return
		}

		retryAfter := time.Until(resetAt)
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		retryAfterSeconds := int(retryAfter.Seconds())
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":        "rate_limited",
			"retryAfterMs": int(retryAfter / time.Millisecond),
		})
		c.Abort()
	}
}
