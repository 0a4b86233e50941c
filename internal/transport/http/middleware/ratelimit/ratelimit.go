// Package ratelimit provides per-caller rate limiting middleware built
// on token buckets.
package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per caller key.
type Limiter struct {
	perMinute int
	buckets   sync.Map // map[string]*rate.Limiter
}

// New creates a limiter allowing perMinute requests per caller.
// A non-positive value disables limiting.
func New(perMinute int) *Limiter {
	return &Limiter{perMinute: perMinute}
}

// Allow reports whether the caller identified by key may proceed.
func (l *Limiter) Allow(key string) bool {
	if l.perMinute <= 0 {
		return true
	}

	val, _ := l.buckets.LoadOrStore(key, rate.NewLimiter(
		rate.Limit(float64(l.perMinute)/60.0), l.perMinute))
	return val.(*rate.Limiter).Allow()
}

// Middleware enforces the limit per caller. Callers are identified by
// the X-User-ID header when present, falling back to the remote IP.
func Middleware(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(callerKey(r)) {
				writeTooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeTooManyRequests writes a JSON 429 response.
func writeTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"message": "rate limit exceeded",
			"type":    "rate_limit_error",
		},
	})
}
