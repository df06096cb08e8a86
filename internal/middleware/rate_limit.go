package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/api"
	"github.com/mantonx/seasontracker/internal/metrics"
	"github.com/mantonx/seasontracker/internal/types"
	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket per client IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requestsPerMinute per client with the given burst.
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		idleTTL: 3 * time.Minute,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Allow reports whether key may proceed and, if not, how long until it may.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cl, ok := rl.clients[key]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now

	res := cl.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Minute
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Sweep drops clients idle for longer than the TTL and returns how many remain.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	for key, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
	return len(rl.clients)
}

// Middleware rejects over-limit requests with 429 RATE_LIMIT. Stale clients
// are swept opportunistically.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	var (
		sweepMu   sync.Mutex
		lastSweep = rl.now()
	)

	return func(c *gin.Context) {
		sweepMu.Lock()
		if rl.now().Sub(lastSweep) > time.Minute {
			lastSweep = rl.now()
			sweepMu.Unlock()
			rl.Sweep()
		} else {
			sweepMu.Unlock()
		}

		ok, retryAfter := rl.Allow(c.ClientIP())
		if ok {
			c.Next()
			return
		}

		metrics.RateLimitedTotal.Inc()
		api.RespondWithError(c, types.NewAppError(
			types.ErrorCodeRateLimit,
			"too many requests",
			http.StatusTooManyRequests,
		).WithRetryAfter(retryAfter))
	}
}
