// Package brokersvc implements ridge's endpoint-broker service: the
// service id behind spec.md §6's TCP "REQUEST_CANCEL" command and the
// general cooperative-cancellation mechanism spec.md §4.8/§5 describes
// ("an endpoint signals cancel by causing response.check_cancel() to
// return true"). Endpoints register a CancelFlag per session; a later
// REQUEST_CANCEL (or an in-process Call) flips it, and every Response the
// endpoint hands out for that session consults the same flag.
package brokersvc

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
)

// CancelFlag is a single session's cooperative-cancellation switch. An
// endpoint's Response.CheckCancel() reads it; the broker (or the TCP
// REQUEST_CANCEL frame handler) sets it.
type CancelFlag struct {
	flag atomic.Bool
}

// Set marks the flag canceled.
func (c *CancelFlag) Set() { c.flag.Store(true) }

// Canceled reports whether Set has been called.
func (c *CancelFlag) Canceled() bool { return c.flag.Load() }

// Service tracks one CancelFlag per open session.
type Service struct {
	log *zap.Logger

	mu    sync.Mutex
	flags map[uint64]*CancelFlag
}

// New constructs an endpoint-broker service.
func New(log *zap.Logger) *Service {
	return &Service{flags: make(map[uint64]*CancelFlag), log: log}
}

func (s *Service) Label() string { return "endpoint-broker" }
func (s *Service) ID() uint32    { return routing.ServiceIDEndpointBroker }

func (s *Service) Setup(*framework.Environment) error    { return nil }
func (s *Service) Start(*framework.Environment) error    { return nil }
func (s *Service) Shutdown(*framework.Environment) error { return nil }

// Register allocates (or returns the existing) CancelFlag for sessionID.
// Endpoints call this once per accepted session and hand the flag to
// every Response they construct for it.
func (s *Service) Register(sessionID uint64) *CancelFlag {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.flags[sessionID]; ok {
		return f
	}
	f := &CancelFlag{}
	s.flags[sessionID] = f
	return f
}

// Unregister drops the CancelFlag for sessionID at session teardown.
func (s *Service) Unregister(sessionID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flags, sessionID)
}

// Cancel flips the CancelFlag for sessionID, if one is registered. It
// reports whether a flag was found.
func (s *Service) Cancel(sessionID uint64) bool {
	s.mu.Lock()
	f, ok := s.flags[sessionID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	f.Set()
	return true
}

// Call treats the request's session id as the target of a cancel command
// (the in-process equivalent of a TCP REQUEST_CANCEL frame) and responds
// with whether a live session was found.
func (s *Service) Call(req contract.Request, resp contract.Response) (bool, error) {
	found := s.Cancel(req.SessionID())
	if s.log != nil {
		s.log.Debug("broker cancel requested", zap.Uint64("session_id", req.SessionID()), zap.Bool("found", found))
	}
	if !found {
		return false, resp.Error(contract.Record{
			Code:    contract.CodeInvalidRequest,
			Message: "endpoint-broker: no such session",
		})
	}
	return true, resp.Body(nil)
}
