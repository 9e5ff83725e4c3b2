package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestProbe_Thresholds(t *testing.T) {
	var fail atomic.Bool
	s := &probeState{Probe: Probe{
		Name:             "db",
		Timeout:          time.Second,
		FailureThreshold: 2,
		SuccessThreshold: 2,
		Check: func(context.Context) error {
			if fail.Load() {
				return errors.New("down")
			}
			return nil
		},
	}}
	s.healthy.Store(true)
	ctx := context.Background()

	fail.Store(true)
	s.tick(ctx)
	assert.True(t, s.healthy.Load(), "one failure is below threshold")
	s.tick(ctx)
	require.False(t, s.healthy.Load())
	msg, failed := s.failure()
	assert.True(t, failed)
	assert.Equal(t, "down", msg)

	fail.Store(false)
	s.tick(ctx)
	assert.False(t, s.healthy.Load(), "one success is below threshold")
	s.tick(ctx)
	assert.True(t, s.healthy.Load())
}

func TestProbe_Timeout(t *testing.T) {
	s := &probeState{Probe: Probe{
		Timeout:          10 * time.Millisecond,
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}}
	s.tick(context.Background())

	msg, failed := s.failure()
	assert.True(t, failed)
	assert.Contains(t, msg, "deadline exceeded")
}

func TestLiveEndpoint(t *testing.T) {
	h := New(time.Second)
	h.Add(Probe{Name: "goroutines", Kind: Liveness, Check: GoroutineCountCheck(1 << 20)})

	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadyEndpoint(t *testing.T) {
	h := New(time.Second)
	h.Add(Probe{Name: "redis", Kind: Readiness, Check: failing("connection refused"), FailureThreshold: 1})
	h.Add(Probe{Name: "postgres", Kind: Readiness, Check: failing("timeout"), FailureThreshold: 1})

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"_readiness":"service is not ready"}}`, w.Body.String())

	h.SetReady(true)
	assert.True(t, h.IsReady(), "probes start healthy")

	for _, s := range h.snapshot(Readiness) {
		s.tick(context.Background())
	}
	assert.False(t, h.IsReady())
	w = serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t,
		`{"status":"unhealthy","checks":{"postgres":"timeout","redis":"connection refused"}}`,
		w.Body.String(),
	)

	// Liveness is unaffected by readiness probes.
	assert.Equal(t, http.StatusOK, serve(h.LiveEndpoint).Code)
}

func TestRun(t *testing.T) {
	h := New(5 * time.Millisecond)
	var calls atomic.Int32
	h.Add(Probe{Name: "counter", Kind: Readiness, Check: func(context.Context) error {
		calls.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

type pinger func(context.Context) error

func (p pinger) Ping(ctx context.Context) error { return p(ctx) }

func TestPingCheck(t *testing.T) {
	assert.NoError(t, PingCheck(pinger(func(context.Context) error { return nil }))(context.Background()))

	err := PingCheck(pinger(failing("refused")))(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1<<20)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
