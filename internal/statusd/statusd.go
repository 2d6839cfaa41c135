package statusd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alokkulkarni/agentOchestrator-sub002/internal/metrics"
	"github.com/alokkulkarni/agentOchestrator-sub002/pkg/api"
)

// CheckFunc produces the current per-service checks for the stack.
type CheckFunc func(ctx context.Context) []api.Check

// Server exposes aggregated stack status over HTTP. It serves the same
// health document shape the gateway contract defines.
type Server struct {
	Checks    CheckFunc
	Collector *metrics.Collector
	// Interval between background refreshes. Zero disables the refresher and
	// every request probes synchronously.
	Interval time.Duration

	mu     sync.RWMutex
	latest []api.Check
	srv    *http.Server
}

func (s *Server) refresh(ctx context.Context) []api.Check {
	start := time.Now()
	checks := s.Checks(ctx)
	s.mu.Lock()
	s.latest = checks
	s.mu.Unlock()
	if s.Collector != nil {
		s.Collector.Add("statusd_refreshes_total", 1, nil)
		s.Collector.Observe("statusd_refresh_duration_ms", time.Since(start), nil)
		for _, c := range checks {
			v := 0.0
			if c.Status == api.StatusHealthy {
				v = 1.0
			}
			s.Collector.Set("stack_service_healthy", v, map[string]string{"service": c.Name})
		}
	}
	return checks
}

func (s *Server) current(ctx context.Context) []api.Check {
	if s.Interval <= 0 {
		return s.refresh(ctx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Routes installs the handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/checks", s.checksHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	checks := s.current(r.Context())
	doc := api.HealthDocument{
		Status:    api.Rollup(checks),
		Timestamp: time.Now(),
		Checks:    checks,
	}
	w.Header().Set("Content-Type", "application/json")
	if doc.Status != api.StatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(doc)
}

func (s *Server) checksHandler(w http.ResponseWriter, r *http.Request) {
	checks := s.current(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(checks)
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if s.Collector == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.Collector.WritePrometheus(w)
}

// ListenAndServe starts the server and, when an interval is set, the
// background refresher. It blocks until the listener fails or Shutdown runs.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	s.Routes(mux)
	s.srv = &http.Server{Addr: addr, Handler: mux}

	if s.Interval > 0 {
		s.refresh(ctx)
		go func() {
			ticker := time.NewTicker(s.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.refresh(ctx)
				}
			}
		}()
	}

	log.Info().Str("addr", addr).Msg("status server listening")
	return s.srv.ListenAndServe()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return fmt.Errorf("server not running")
	}
	return s.srv.Shutdown(ctx)
}
