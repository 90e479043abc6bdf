package altimeter

import (
	"testing"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/session"
)

func TestLogAppendsToSnapshot(t *testing.T) {
	svc := New(nil)
	svc.DBStart("admin", "ridge", ResultSuccess)
	svc.SessionStarted(session.SessionInfo{ID: 1, UserName: "alice"})
	svc.SessionStopped(session.SessionInfo{ID: 1, UserName: "alice"})

	events := svc.Snapshot()
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	if events[0].Type != EventDBStart {
		t.Errorf("events[0].Type = %q, want %q", events[0].Type, EventDBStart)
	}
	if events[1].Type != EventSessionStart || events[1].User != "alice" {
		t.Errorf("events[1] = %+v, want session_start for alice", events[1])
	}
}

func TestRingBufferIsBounded(t *testing.T) {
	svc := New(nil)
	for i := 0; i < ringSize+10; i++ {
		svc.Log(Event{Type: EventSessionStart})
	}
	if got := len(svc.Snapshot()); got != ringSize {
		t.Errorf("len(Snapshot()) = %d, want %d", got, ringSize)
	}
}

func TestCallReturnsJSONBody(t *testing.T) {
	svc := New(nil)
	svc.DBStart("", "ridge", ResultSuccess)

	req := contract.NewMemoryRequest(0, 0, nil, contract.DatabaseInfo{}, session.SessionInfo{}, session.NewStore(), nil)
	resp := contract.NewMemoryResponse()
	ok, err := svc.Call(req, resp)
	if !ok || err != nil {
		t.Fatalf("Call() = %v, %v; want true, nil", ok, err)
	}
	_, body, callErr := resp.Result()
	if callErr != nil || len(body) == 0 {
		t.Errorf("Result() = %v, %q; want a non-empty body and no error", callErr, body)
	}
}
