// Package sessionsvc implements ridge's session-control service (spec.md
// §6 "Service ids" names "session" as a stable id). It is the
// service-level glue around internal/session's Store/VariableSet/Context
// types: creating and tearing down session.Context values as endpoints
// accept and close connections, and answering framework Call()s that ask
// about a session's current state. Grounded on the teacher's
// internal/app/credit/credit.go shape (a Service wrapping a small piece of
// process state behind simple named operations).
package sessionsvc

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
	"github.com/ridgedb/ridge/internal/session"
	"github.com/ridgedb/ridge/internal/statusarea"
)

// AuditSink receives session lifecycle events. internal/services/altimeter
// satisfies this without sessionsvc importing it directly, avoiding an
// import cycle between the two domain services.
type AuditSink interface {
	SessionStarted(info session.SessionInfo)
	SessionStopped(info session.SessionInfo)
}

// Service owns the set of live session.Context values for this process:
// the endpoints create one per accepted connection and release it on
// close; the routing service's forwarded requests read SessionStore/
// SessionVariableSet off the same Context via contract.Request.
type Service struct {
	decls *session.VariableDeclarationSet
	area  *statusarea.Area
	audit AuditSink
	log   *zap.Logger

	mu       sync.Mutex
	sessions map[uint64]*session.Context
}

// New constructs a session-control service. decls is the fixed set of
// declared session variables (shared by every session); area is the
// process-wide status area sessions register themselves in; audit may be
// nil.
func New(decls *session.VariableDeclarationSet, area *statusarea.Area, audit AuditSink, log *zap.Logger) *Service {
	return &Service{
		decls:    decls,
		area:     area,
		audit:    audit,
		log:      log,
		sessions: make(map[uint64]*session.Context),
	}
}

func (s *Service) Label() string { return "session" }
func (s *Service) ID() uint32    { return routing.ServiceIDSession }

func (s *Service) Setup(*framework.Environment) error    { return nil }
func (s *Service) Start(*framework.Environment) error    { return nil }
func (s *Service) Shutdown(*framework.Environment) error { return s.disposeAll() }

// Open creates a session.Context for a newly accepted connection, records
// it in the process-wide status area, and notifies the audit sink.
func (s *Service) Open(info session.SessionInfo) *session.Context {
	ctx := session.NewContext(info, session.NewVariableSet(s.decls))

	s.mu.Lock()
	s.sessions[info.ID] = ctx
	s.mu.Unlock()

	if s.area != nil {
		s.area.AddSession(info.ID)
	}
	if s.audit != nil {
		s.audit.SessionStarted(info)
	}
	return ctx
}

// Close tears down the session.Context for id: its store is disposed
// exactly once (spec.md invariant 6), it is removed from the status area,
// and the audit sink is notified.
func (s *Service) Close(id uint64) {
	s.mu.Lock()
	ctx, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx.Store.Dispose(func(id uint64, elementType string, recovered any) {
		if s.log != nil {
			s.log.Error("session store element panicked on dispose",
				zap.Uint64("element_id", id), zap.String("element_type", elementType),
				zap.Any("panic", recovered))
		}
	})
	if s.area != nil {
		s.area.RemoveSession(ctx.Info.ID)
	}
	if s.audit != nil {
		s.audit.SessionStopped(ctx.Info)
	}
}

// Find returns the live session.Context for id, if any.
func (s *Service) Find(id uint64) (*session.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, ok := s.sessions[id]
	return ctx, ok
}

func (s *Service) disposeAll() error {
	s.mu.Lock()
	ids := make([]uint64, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.Close(id)
	}
	return nil
}

// sessionSummary is the JSON shape Call() describes a session with.
type sessionSummary struct {
	ID              uint64 `json:"id"`
	Label           string `json:"label,omitempty"`
	ApplicationName string `json:"application_name,omitempty"`
	ConnectionType  string `json:"connection_type"`
	UserKind        string `json:"user_kind"`
	ShutdownState   string `json:"shutdown_state"`
}

// Call answers a framework request asking for the calling session's
// current state: shutdown escalation state and identity. It is the one
// body the session service itself needs to support; variable get/set and
// store access happen in-process via contract.Request, never over the
// wire.
func (s *Service) Call(req contract.Request, resp contract.Response) (bool, error) {
	ctx, ok := s.Find(req.SessionID())
	if !ok {
		return false, resp.Error(contract.Record{
			Code:    contract.CodeInvalidRequest,
			Message: fmt.Sprintf("session %d is not open", req.SessionID()),
		})
	}

	summary := sessionSummary{
		ID:              ctx.Info.ID,
		Label:           ctx.Info.Label,
		ApplicationName: ctx.Info.ApplicationName,
		ConnectionType:  string(ctx.Info.ConnectionType),
		UserKind:        string(ctx.Info.UserKind),
		ShutdownState:   shutdownStateString(ctx.ShutdownState()),
	}
	body, err := json.Marshal(summary)
	if err != nil {
		return false, resp.Error(contract.Record{Code: contract.CodeInvalidRequest, Message: err.Error()})
	}
	return true, resp.Body(body)
}

func shutdownStateString(r session.ShutdownRequest) string {
	switch r {
	case session.ShutdownGraceful:
		return "graceful"
	case session.ShutdownForceful:
		return "forceful"
	default:
		return "nothing"
	}
}
