// Package metricssvc exposes scheduler.Stats() as Prometheus gauges
// (spec.md §6 "Service ids" names "metrics" among the stable service ids;
// the metric surface itself is a SPEC_FULL.md domain-stack addition).
// Grounded on the teacher's internal/api/server.go, which wires
// promhttp.Handler() onto its chi router — ridge reuses the same library,
// scraped by the debug HTTP service rather than re-implementing its own.
package metricssvc

import (
	"encoding/json"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
	"github.com/ridgedb/ridge/internal/scheduler"
)

// Service republishes scheduler.Stats() as Prometheus gauges on Start and
// on every Call(), and answers framework Call()s with a JSON snapshot —
// the worker_stat-as-JSON surface spec.md §4.5 "Diagnostics" describes.
type Service struct {
	sched *scheduler.Scheduler
	reg   *prometheus.Registry

	count     *prometheus.GaugeVec
	steal     *prometheus.GaugeVec
	sticky    *prometheus.GaugeVec
	wakeupRun *prometheus.GaugeVec
	suspend   *prometheus.GaugeVec
}

// New constructs a metrics service that reads from sched and publishes
// into reg (a *prometheus.Registry owned by the debug HTTP surface).
func New(sched *scheduler.Scheduler, reg *prometheus.Registry) *Service {
	labels := []string{"worker"}
	s := &Service{
		sched: sched,
		reg:   reg,
		count:     prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "ridge", Subsystem: "scheduler", Name: "tasks_executed"}, labels),
		steal:     prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "ridge", Subsystem: "scheduler", Name: "tasks_stolen"}, labels),
		sticky:    prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "ridge", Subsystem: "scheduler", Name: "sticky_tasks_run"}, labels),
		wakeupRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "ridge", Subsystem: "scheduler", Name: "wakeup_runs"}, labels),
		suspend:   prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "ridge", Subsystem: "scheduler", Name: "suspends"}, labels),
	}
	return s
}

func (s *Service) Label() string { return "metrics" }
func (s *Service) ID() uint32    { return routing.ServiceIDMetrics }

func (s *Service) Setup(*framework.Environment) error {
	for _, c := range []prometheus.Collector{s.count, s.steal, s.sticky, s.wakeupRun, s.suspend} {
		if err := s.reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Start(*framework.Environment) error    { s.refresh(); return nil }
func (s *Service) Shutdown(*framework.Environment) error { return nil }

// refresh copies the scheduler's current stat snapshot into the
// Prometheus gauges. It runs on Start and on each Call(); nothing runs it
// on a timer.
func (s *Service) refresh() {
	for _, st := range s.sched.Stats() {
		label := prometheus.Labels{"worker": strconv.Itoa(st.Index)}
		s.count.With(label).Set(float64(st.Count))
		s.steal.With(label).Set(float64(st.Steal))
		s.sticky.With(label).Set(float64(st.Sticky))
		s.wakeupRun.With(label).Set(float64(st.WakeupRun))
		s.suspend.With(label).Set(float64(st.Suspend))
	}
}

// Call answers a request with the current worker_stat snapshot encoded as
// JSON (spec.md §4.5 "print_worker_stats").
func (s *Service) Call(_ contract.Request, resp contract.Response) (bool, error) {
	s.refresh()
	body, err := json.Marshal(s.sched.Stats())
	if err != nil {
		return false, resp.Error(contract.Record{Code: contract.CodeInvalidRequest, Message: err.Error()})
	}
	return true, resp.Body(body)
}
