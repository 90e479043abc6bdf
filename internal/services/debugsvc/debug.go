// Package debugsvc is ridge's debug/status HTTP surface: a chi router
// exposing /healthz, /metrics (Prometheus), and /status (shared status
// area snapshot). Grounded on the teacher's internal/api/server.go
// (middleware chain, route groups, promhttp.Handler wiring) and
// internal/health/checker.go (periodic Check funcs, RWMutex-guarded
// status map).
package debugsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
	"github.com/ridgedb/ridge/internal/scheduler"
	"github.com/ridgedb/ridge/internal/statusarea"
)

// Check is one named health probe, run on every tick of the checker loop.
type Check struct {
	Name string
	Run  func() error
}

// Service serves ridge's HTTP debug surface and runs a background health
// check loop, the way the teacher's health.Checker does.
type Service struct {
	Addr      string
	Area      *statusarea.Area
	Registry  *prometheus.Registry
	Scheduler *scheduler.Scheduler
	Checks    []Check

	mu       sync.RWMutex
	statuses map[string]error

	server *http.Server
	stopCh chan struct{}
}

func (s *Service) Label() string { return "debug" }
func (s *Service) ID() uint32    { return routing.ServiceIDDebug }

func (s *Service) Setup(*framework.Environment) error {
	s.statuses = make(map[string]error, len(s.Checks))
	s.stopCh = make(chan struct{})
	return nil
}

func (s *Service) Start(*framework.Environment) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Timeout(5*time.Minute))

	if s.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Get("/diag", s.handleDiag)

	s.server = &http.Server{Addr: s.Addr, Handler: r}
	go func() {
		_ = s.server.ListenAndServe()
	}()
	go s.runChecks()
	return nil
}

func (s *Service) Shutdown(*framework.Environment) error {
	if s.stopCh != nil {
		close(s.stopCh)
	}
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Service) runChecks() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	s.tick()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Service) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Checks {
		s.statuses[c.Name] = c.Run()
	}
}

func (s *Service) isHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, err := range s.statuses {
		if err != nil {
			return false
		}
	}
	return true
}

func (s *Service) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if !s.isHealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleDiag serves the scheduler's itemized per-worker queue dump
// (tateyama's print_diagnostic).
func (s *Service) handleDiag(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.Scheduler == nil {
		_ = json.NewEncoder(w).Encode(map[string]any{})
		return
	}
	_ = json.NewEncoder(w).Encode(s.Scheduler.Diagnostics())
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":           s.Area.State().String(),
		"pid":             s.Area.PID(),
		"database_name":   s.Area.DatabaseName(),
		"active_sessions": s.Area.ActiveSessions(),
		"healthy":         s.isHealthy(),
	})
}

// Call answers a framework request with the same JSON the /status HTTP
// route serves, so IPC/TCP clients can poll status without an HTTP round
// trip.
func (s *Service) Call(_ contract.Request, resp contract.Response) (bool, error) {
	body, err := json.Marshal(map[string]any{
		"state":           s.Area.State().String(),
		"pid":             s.Area.PID(),
		"database_name":   s.Area.DatabaseName(),
		"active_sessions": s.Area.ActiveSessions(),
		"healthy":         s.isHealthy(),
	})
	if err != nil {
		return false, resp.Error(contract.Record{Code: contract.CodeInvalidRequest, Message: err.Error()})
	}
	return true, resp.Body(body)
}
