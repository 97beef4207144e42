package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleAfter  = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per client IP.
type limiterSet struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	limiters map[string]*clientLimiter
}

func (s *limiterSet) allow(ip string, now time.Time) bool {
	s.mu.Lock()
	l, ok := s.limiters[ip]
	if !ok {
		l = &clientLimiter{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.limiters[ip] = l
	}
	l.lastSeen = now
	s.mu.Unlock()
	return l.limiter.AllowN(now, 1)
}

// sweep drops limiters idle since before cutoff.
func (s *limiterSet) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ip, l := range s.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(s.limiters, ip)
		}
	}
}

// RateLimiter returns a Gin middleware that enforces per-IP token-bucket
// rate limiting. rps is the steady-state requests per second; burst is the
// maximum burst size. Idle buckets are swept every five minutes until ctx
// is cancelled.
func RateLimiter(ctx context.Context, rps, burst int) gin.HandlerFunc {
	set := &limiterSet{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*clientLimiter),
	}

	go func() {
		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				set.sweep(now.Add(-limiterIdleAfter))
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(c *gin.Context) {
		if !set.allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
