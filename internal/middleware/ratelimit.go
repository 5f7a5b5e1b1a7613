package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter is a fixed-window per-IP limiter. It guards the auth
// endpoints against credential stuffing; authenticated traffic is not
// limited.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*ipWindow
	limit   int
	window  time.Duration
}

type ipWindow struct {
	count   int
	started time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*ipWindow),
		limit:   limit,
		window:  window,
	}
	go rl.sweep()
	return rl
}

// sweep drops windows that have gone stale so the map stays bounded.
func (rl *RateLimiter) sweep() {
	for {
		time.Sleep(rl.window)
		rl.mu.Lock()
		for ip, w := range rl.windows {
			if time.Since(w.started) > rl.window {
				delete(rl.windows, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow records a hit from ip and reports whether it is still inside
// the limit for the current window.
func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[ip]
	if !ok || time.Since(w.started) > rl.window {
		rl.windows[ip] = &ipWindow{count: 1, started: time.Now()}
		return true
	}
	w.count++
	return w.count <= rl.limit
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			denied(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
