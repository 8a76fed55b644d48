// Package health provides liveness and readiness probe endpoints.
//
// Liveness means the process is running; readiness additionally requires
// the service to have been marked ready and every registered check to
// pass. Checks run on demand with a per-check timeout, which keeps the
// package free of background goroutines; probe intervals are the caller's
// (e.g. kubelet's) concern.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. Return nil when healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Service evaluates registered checks and serves probe endpoints.
type Service struct {
	mu     sync.RWMutex
	checks []check
	ready  atomic.Bool
}

// New creates an empty health Service. It starts not-ready.
func New() *Service {
	return &Service{}
}

// AddReadinessCheck registers a named dependency check evaluated on every
// readiness probe.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the overall readiness gate. Flipping to false (e.g.
// during shutdown) makes /readyz fail regardless of check results.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint always reports the process as alive.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, http.StatusOK, probeResponse{Status: "ok"})
}

// ReadyEndpoint runs all readiness checks and reports 200 only when the
// service is marked ready and every check passes.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeProbe(w, http.StatusServiceUnavailable, probeResponse{Status: "not ready"})
		return
	}

	s.mu.RLock()
	checks := s.checks
	s.mu.RUnlock()

	results := make(map[string]string, len(checks))
	healthy := true
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.fn(ctx)
		cancel()

		if err != nil {
			healthy = false
			results[c.name] = err.Error()
		} else {
			results[c.name] = "ok"
		}
	}

	status := http.StatusOK
	resp := probeResponse{Status: "ok", Checks: results}
	if !healthy {
		status = http.StatusServiceUnavailable
		resp.Status = "unhealthy"
	}
	writeProbe(w, status, resp)
}

func writeProbe(w http.ResponseWriter, status int, resp probeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
