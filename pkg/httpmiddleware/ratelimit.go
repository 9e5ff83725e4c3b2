package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window. Zero disables
	// limiting.
	Max    int
	Window time.Duration
	// KeyFunc extracts the rate limit key. Defaults to the client IP.
	KeyFunc func(*http.Request) string
}

// window counts requests in the current and previous fixed windows; the
// limit is applied to a weighted blend of the two.
type window struct {
	start time.Time
	curr  float64
	prev  float64
}

// RateLimiter enforces a per-key sliding window limit.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu   sync.Mutex
	keys map[string]*window
}

// NewRateLimiter creates a RateLimiter. Call Run to evict idle keys.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{
		cfg:  cfg,
		now:  time.Now,
		keys: make(map[string]*window),
	}
}

// take records a request for key and reports whether it is allowed, how many
// requests remain and when the current window ends.
func (l *RateLimiter) take(key string) (allowed bool, remaining int, reset time.Time) {
	now := l.now()
	size := l.cfg.Window

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.keys[key]
	if !ok {
		w = &window{start: now.Truncate(size)}
		l.keys[key] = w
	}
	switch elapsed := now.Sub(w.start); {
	case elapsed >= 2*size:
		w.start, w.prev, w.curr = now.Truncate(size), 0, 0
	case elapsed >= size:
		w.start, w.prev, w.curr = w.start.Add(size), w.curr, 0
	}

	weight := 1 - float64(now.Sub(w.start))/float64(size)
	used := w.prev*math.Max(weight, 0) + w.curr
	reset = w.start.Add(size)

	if used >= float64(l.cfg.Max) {
		return false, 0, reset
	}
	w.curr++
	return true, max(int(float64(l.cfg.Max)-used-1), 0), reset
}

// evict drops keys idle for two full windows.
func (l *RateLimiter) evict() {
	cutoff := l.now().Add(-2 * l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.keys {
		if w.start.Before(cutoff) {
			delete(l.keys, key)
		}
	}
}

// Run evicts idle keys every two windows until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(2 * l.cfg.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.evict()
		}
	}
}

// Middleware sets the X-RateLimit-* headers on every response and rejects
// requests over the limit with 429 and a failure envelope.
func (l *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		if l.cfg.Max <= 0 {
			return next
		}
		limit := strconv.Itoa(l.cfg.Max)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, reset := l.take(l.cfg.KeyFunc(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !allowed {
				wait := max(reset.Sub(l.now()), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
