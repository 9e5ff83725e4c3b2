// Package health runs background liveness and readiness probes and serves
// their state over HTTP.
//
// A probe flips to unhealthy only after FailureThreshold consecutive
// failures, and back after SuccessThreshold consecutive successes.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/sync/errgroup"
)

// CheckFunc reports the health of one component.
type CheckFunc func(ctx context.Context) error

// Kind selects the endpoint a probe contributes to.
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// Probe describes a registered check.
type Probe struct {
	Name             string
	Kind             Kind
	Check            CheckFunc
	Timeout          time.Duration
	FailureThreshold int
	SuccessThreshold int
}

type probeState struct {
	Probe

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	// Owned by the probe goroutine.
	fails, oks int
}

func (s *probeState) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Check(ctx); err != nil {
		msg := err.Error()
		s.lastErr.Store(&msg)
		s.oks = 0
		if s.fails++; s.fails >= s.FailureThreshold {
			s.healthy.Store(false)
		}
		return
	}
	s.lastErr.Store(nil)
	s.fails = 0
	if s.oks++; s.oks >= s.SuccessThreshold {
		s.healthy.Store(true)
	}
}

func (s *probeState) failure() (string, bool) {
	if s.healthy.Load() {
		return "", false
	}
	if msg := s.lastErr.Load(); msg != nil {
		return *msg, true
	}
	return "check is unhealthy", true
}

// Health tracks probes and the manual readiness flag.
type Health struct {
	interval time.Duration
	ready    atomic.Bool

	mu     sync.RWMutex
	probes []*probeState
}

// New creates Health polling every interval. The service starts not ready.
func New(interval time.Duration) *Health {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Health{interval: interval}
}

// Add registers p. Probes start healthy. Zero thresholds default to 3
// failures and 1 success, a zero timeout to 2s.
func (h *Health) Add(p Probe) {
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = 3
	}
	if p.SuccessThreshold <= 0 {
		p.SuccessThreshold = 1
	}
	if p.Timeout <= 0 {
		p.Timeout = 2 * time.Second
	}
	s := &probeState{Probe: p}
	s.healthy.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes = append(h.probes, s)
}

func (h *Health) snapshot(kind Kind) []*probeState {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*probeState
	for _, s := range h.probes {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Run polls every probe until ctx is done.
func (h *Health) Run(ctx context.Context) error {
	h.mu.RLock()
	probes := slices.Clone(h.probes)
	h.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range probes {
		g.Go(func() error {
			ticker := time.NewTicker(h.interval)
			defer ticker.Stop()
			for {
				s.tick(ctx)
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}
	return g.Wait()
}

// SetReady sets the manual readiness flag.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// probe passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	for _, s := range h.snapshot(Readiness) {
		if !s.healthy.Load() {
			return false
		}
	}
	return true
}

func failures(probes []*probeState) map[string]string {
	out := make(map[string]string)
	for _, s := range probes {
		if msg, failed := s.failure(); failed {
			out[s.Name] = msg
		}
	}
	return out
}

// LiveEndpoint serves the liveness state.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failures(h.snapshot(Liveness)))
}

// ReadyEndpoint serves the readiness state.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.snapshot(Readiness))
	if !h.ready.Load() {
		failed["_readiness"] = "service is not ready"
	}
	writeStatus(w, failed)
}

// writeStatus writes {"status":"ok"} or 503 with the failing checks in name
// order.
func writeStatus(w http.ResponseWriter, failed map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := http.StatusOK
	e.ObjStart()
	e.FieldStart("status")
	if len(failed) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		names := make([]string, 0, len(failed))
		for name := range failed {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			e.FieldStart(name)
			e.Str(failed[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
