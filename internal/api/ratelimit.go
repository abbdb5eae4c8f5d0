package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/teleinformatics/campus-core/internal/infrastructure/config"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

// clientLimiter tracks a per-client token bucket and when it was last used.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter enforces a per-client token bucket on credential endpoints.
type rateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func newRateLimiter(cfg config.RateLimitConfig, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / float64(time.Minute/time.Second)),
		burst:   cfg.Burst,
		now:     now,
		clients: make(map[string]*clientLimiter),
	}
}

func (rl *rateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if cl, ok := rl.clients[key]; ok {
		cl.lastSeen = now
		return cl.limiter
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.clients[key] = &clientLimiter{limiter: l, lastSeen: now}
	return l
}

// sweep forgets clients idle for longer than limiterIdleTTL.
func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-limiterIdleTTL)
	for key, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// sweepLoop runs sweep periodically until ctx is cancelled.
func (rl *rateLimiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// rateLimitMiddleware rejects requests beyond the client's budget with 429.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := s.limiter.get(clientIP(r))

		reservation := limiter.ReserveN(s.limiter.now(), 1)
		if !reservation.OK() {
			s.writeError(w, r, http.StatusTooManyRequests, CodeRateLimited, msgTooManyRequests)
			return
		}
		if delay := reservation.DelayFrom(s.limiter.now()); delay > 0 {
			reservation.CancelAt(s.limiter.now())
			w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			s.writeError(w, r, http.StatusTooManyRequests, CodeRateLimited, msgTooManyRequests)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.limiter.burst))
		next.ServeHTTP(w, r)
	})
}
