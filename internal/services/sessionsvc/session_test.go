package sessionsvc

import (
	"testing"
	"time"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/session"
)

type recordingAudit struct {
	started, stopped int
}

func (r *recordingAudit) SessionStarted(session.SessionInfo) { r.started++ }
func (r *recordingAudit) SessionStopped(session.SessionInfo) { r.stopped++ }

func TestOpenCloseLifecycle(t *testing.T) {
	audit := &recordingAudit{}
	svc := New(session.NewVariableDeclarationSet(nil), nil, audit, nil)

	info := session.SessionInfo{ID: 1, StartTime: time.Now()}
	ctx := svc.Open(info)
	if ctx == nil {
		t.Fatal("Open returned nil")
	}
	if audit.started != 1 {
		t.Errorf("started = %d, want 1", audit.started)
	}

	got, ok := svc.Find(1)
	if !ok || got != ctx {
		t.Fatalf("Find(1) = %v, %v; want the same context", got, ok)
	}

	svc.Close(1)
	if audit.stopped != 1 {
		t.Errorf("stopped = %d, want 1", audit.stopped)
	}
	if _, ok := svc.Find(1); ok {
		t.Error("Find(1) still found a session after Close")
	}
}

func TestCallUnknownSessionErrors(t *testing.T) {
	svc := New(session.NewVariableDeclarationSet(nil), nil, nil, nil)
	req := contract.NewMemoryRequest(99, 0, nil, contract.DatabaseInfo{}, session.SessionInfo{}, session.NewStore(), nil)
	resp := contract.NewMemoryResponse()

	ok, err := svc.Call(req, resp)
	if ok || err != nil {
		t.Fatalf("Call() = %v, %v; want false, nil", ok, err)
	}
}

func TestShutdownDisposesEverySession(t *testing.T) {
	svc := New(session.NewVariableDeclarationSet(nil), nil, nil, nil)
	svc.Open(session.SessionInfo{ID: 1})
	svc.Open(session.SessionInfo{ID: 2})

	if err := svc.Shutdown(nil); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, ok := svc.Find(1); ok {
		t.Error("session 1 still present after Shutdown")
	}
	if _, ok := svc.Find(2); ok {
		t.Error("session 2 still present after Shutdown")
	}
}
