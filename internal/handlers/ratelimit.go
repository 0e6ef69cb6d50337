package handlers

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles submissions per learner, or per client address for anonymous requests
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	mu       sync.Mutex
	visitors map[string]*visitor
	metrics  secondary.MetricsRecorder
}

func NewRateLimiter(rps float64, burst int, metrics secondary.MetricsRecorder) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		metrics:  metrics,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Allow reports whether key may make another request now
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limiter(key).Allow() {
		return true
	}
	rl.metrics.IncRateLimited()
	return false
}

// Cleanup forgets visitors idle for longer than maxIdle
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(requestKey(r)) {
			w.Header().Set("Retry-After", "1")
			ResponseError(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestKey(r *http.Request) string {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(userID, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
