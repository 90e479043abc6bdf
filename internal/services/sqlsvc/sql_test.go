package sqlsvc

import (
	"testing"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/session"
)

func TestCallAlwaysRejects(t *testing.T) {
	svc := New()
	req := contract.NewMemoryRequest(0, 0, nil, contract.DatabaseInfo{}, session.SessionInfo{}, session.NewStore(), nil)
	resp := contract.NewMemoryResponse()

	ok, err := svc.Call(req, resp)
	if ok || err != nil {
		t.Fatalf("Call() = %v, %v; want false, nil", ok, err)
	}

	_, _, rec := resp.Result()
	if rec == nil || rec.Code != contract.CodeServiceUnavailable {
		t.Errorf("Result() record = %v, want code %q", rec, contract.CodeServiceUnavailable)
	}
}
