package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(cfg RateLimitConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewRateLimiter(cfg)
	l.now = clock.Now
	return l, clock
}

func hit(h http.Handler, remoteAddr string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for _, f := range mutate {
		f(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{Max: 5, Window: time.Minute})
	h := l.Middleware()(okHandler())

	for i := range 5 {
		w := hit(h, "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	h := l.Middleware()(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:9999").Code)
	}

	w := hit(h, "10.0.0.1:9999")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var (
		success = true
		message string
	)
	require.NoError(t, jx.DecodeBytes(w.Body.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			v, err := d.Bool()
			success = v
			return err
		case "message":
			v, err := d.Str()
			message = v
			return err
		default:
			return d.Skip()
		}
	}))
	assert.False(t, success)
	assert.Equal(t, "Too many requests, please try again later", message)
}

func TestRateLimit_WindowSlides(t *testing.T) {
	l, clock := newTestLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	h := l.Middleware()(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
	}
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1").Code)

	// Two full windows later the previous counts no longer weigh in.
	clock.Advance(2 * time.Minute)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1").Code)
}

func TestRateLimit_DifferentIPs(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	h := l.Middleware()(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:5678").Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-Client")
		},
	})
	h := l.Middleware()(okHandler())
	client := func(name string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Client", name) }
	}

	assert.Equal(t, http.StatusOK, hit(h, "1.1.1.1:1", client("a")).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "2.2.2.2:1", client("a")).Code)
	assert.Equal(t, http.StatusOK, hit(h, "1.1.1.1:1", client("b")).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	l, _ := newTestLimiter(RateLimitConfig{})
	h := l.Middleware()(okHandler())

	for range 10 {
		w := hit(h, "10.0.0.1:1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_Evict(t *testing.T) {
	l, clock := newTestLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	h := l.Middleware()(okHandler())

	hit(h, "10.0.0.1:1")
	hit(h, "10.0.0.2:1")
	require.Len(t, l.keys, 2)

	clock.Advance(90 * time.Second)
	hit(h, "10.0.0.2:1")
	clock.Advance(90 * time.Second)
	l.evict()

	assert.Len(t, l.keys, 1)
	assert.Contains(t, l.keys, "10.0.0.2")
}

func TestClientIP(t *testing.T) {
	for _, tt := range []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{name: "RemoteAddr", remote: "192.168.1.1:4444", want: "192.168.1.1"},
		{name: "NoPort", remote: "192.168.1.1", want: "192.168.1.1"},
		{
			name:   "ForwardedFor",
			remote: "192.168.1.1:4444",
			header: map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"},
			want:   "203.0.113.50",
		},
		{
			name:   "RealIP",
			remote: "192.168.1.1:4444",
			header: map[string]string{"X-Real-IP": "198.51.100.7"},
			want:   "198.51.100.7",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
