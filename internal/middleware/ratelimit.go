package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"pazargate/internal/config"
	"pazargate/pkg/response"
)

// keyedLimiter keeps one token bucket per client key and evicts
// buckets that have been idle longer than the eviction window.
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterIdleEviction = 10 * time.Minute

func newKeyedLimiter(perMinute, burst int) *keyedLimiter {
	return &keyedLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (k *keyedLimiter) allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	entry, ok := k.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = entry
	}
	entry.lastSeen = now

	// lazy eviction keeps the map bounded without a background goroutine
	if len(k.limiters) > 1024 {
		for key, e := range k.limiters {
			if now.Sub(e.lastSeen) > limiterIdleEviction {
				delete(k.limiters, key)
			}
		}
	}

	return entry.limiter.Allow()
}

// RateLimiter throttles requests per client IP using a token bucket
func RateLimiter(cfg *config.Config) gin.HandlerFunc {
	if !cfg.RateLimit.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newKeyedLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	return func(c *gin.Context) {
		if !limiter.allow(GetClientIP(c)) {
			response.TooManyRequests(c, "Rate limit exceeded, slow down")
			return
		}
		c.Next()
	}
}
