// Package altimeter implements ridge's audit-event sink (spec.md §6
// "Service ids" names "altimeter" as a stable id). It is a minimal stand-in
// for tateyama's altimeter audit logging
// (original_source/src/tateyama/framework/altimeter_logger.h's db_start/
// db_stop event shape): every event carries a type, a result code, a
// user, and an optional duration, and
// is appended both to the structured logger and a bounded in-memory ring
// the debug/metrics surfaces can inspect.
package altimeter

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
	"github.com/ridgedb/ridge/internal/session"
)

// EventType mirrors the handful of audit event kinds the original
// altimeter_logger.h emits for the framework: database and session
// start/stop.
type EventType string

const (
	EventDBStart        EventType = "db_start"
	EventDBStop         EventType = "db_stop"
	EventSessionStart   EventType = "session_start"
	EventSessionStop    EventType = "session_stop"
	EventShutdownRequest EventType = "shutdown_request"
)

// Result mirrors the original's db_start_stop_success/fail constants.
type Result int64

const (
	ResultSuccess Result = 1
	ResultFail    Result = 2
)

// Event is one audit log entry.
type Event struct {
	Type     EventType `json:"type"`
	At       time.Time `json:"at"`
	User     string    `json:"user,omitempty"`
	Database string    `json:"database,omitempty"`
	Result   Result    `json:"result"`
	Duration time.Duration `json:"duration,omitempty"`
}

// ringSize bounds the in-memory replay buffer exposed via Call().
const ringSize = 256

// Service appends audit events to the structured logger and keeps the
// most recent ringSize in memory.
type Service struct {
	log *zap.Logger

	mu   sync.Mutex
	ring []Event
}

// New constructs an audit sink. log may be nil (events are still kept in
// the ring, just not written out).
func New(log *zap.Logger) *Service {
	return &Service{log: log}
}

func (s *Service) Label() string { return "altimeter" }
func (s *Service) ID() uint32    { return routing.ServiceIDAltimeter }

func (s *Service) Setup(*framework.Environment) error    { return nil }
func (s *Service) Start(*framework.Environment) error    { return nil }
func (s *Service) Shutdown(*framework.Environment) error { return nil }

// Log records an audit event.
func (s *Service) Log(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.mu.Lock()
	s.ring = append(s.ring, ev)
	if len(s.ring) > ringSize {
		s.ring = s.ring[len(s.ring)-ringSize:]
	}
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("audit",
			zap.String("type", string(ev.Type)),
			zap.String("user", ev.User),
			zap.String("database", ev.Database),
			zap.Int64("result", int64(ev.Result)),
			zap.Duration("duration", ev.Duration))
	}
}

// DBStart logs a database-start audit event — the session-control service
// (or the server bring-up code) calls this once the framework finishes
// Start().
func (s *Service) DBStart(user, database string, result Result) {
	s.Log(Event{Type: EventDBStart, User: user, Database: database, Result: result})
}

// DBStop logs a database-stop audit event with the elapsed uptime.
func (s *Service) DBStop(user, database string, result Result, duration time.Duration) {
	s.Log(Event{Type: EventDBStop, User: user, Database: database, Result: result, Duration: duration})
}

// SessionStarted implements sessionsvc.AuditSink.
func (s *Service) SessionStarted(info session.SessionInfo) {
	s.Log(Event{Type: EventSessionStart, User: info.UserName, Result: ResultSuccess})
}

// SessionStopped implements sessionsvc.AuditSink.
func (s *Service) SessionStopped(info session.SessionInfo) {
	s.Log(Event{Type: EventSessionStop, User: info.UserName, Result: ResultSuccess})
}

// Snapshot returns a copy of the most recent events, oldest first.
func (s *Service) Snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.ring))
	copy(out, s.ring)
	return out
}

// Call answers a framework request with the current audit-event ring as
// JSON — the out-of-band way an operator inspects recent activity without
// tailing the log file.
func (s *Service) Call(_ contract.Request, resp contract.Response) (bool, error) {
	body, err := json.Marshal(s.Snapshot())
	if err != nil {
		return false, resp.Error(contract.Record{Code: contract.CodeInvalidRequest, Message: err.Error()})
	}
	return true, resp.Body(body)
}
