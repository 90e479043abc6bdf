package systemsvc

import (
	"encoding/json"
	"testing"

	"github.com/ridgedb/ridge/internal/config"
	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/scheduler"
	"github.com/ridgedb/ridge/internal/session"
)

type stubComponent struct{ label string }

func (c *stubComponent) Label() string                         { return c.label }
func (c *stubComponent) Setup(*framework.Environment) error    { return nil }
func (c *stubComponent) Start(*framework.Environment) error    { return nil }
func (c *stubComponent) Shutdown(*framework.Environment) error { return nil }

func TestCallListsRegisteredComponents(t *testing.T) {
	sched, err := scheduler.New(scheduler.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	if err := sched.Start(); err != nil {
		t.Fatalf("sched.Start: %v", err)
	}
	t.Cleanup(func() { _ = sched.Stop() })

	env := framework.NewEnvironment(framework.BootModeDatabaseServer, config.DefaultConfig(), nil, sched)
	srv := framework.NewServer(env)

	srv.AddResource(&stubComponent{label: "res"})
	svc := New()
	srv.AddService(svc)
	srv.AddEndpoint(&stubComponent{label: "ep"})

	if err := srv.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	req := contract.NewMemoryRequest(0, 0, nil, contract.DatabaseInfo{}, session.SessionInfo{}, session.NewStore(), nil)
	resp := contract.NewMemoryResponse()
	ok, err := svc.Call(req, resp)
	if !ok || err != nil {
		t.Fatalf("Call() = %v, %v; want true, nil", ok, err)
	}

	_, body, _ := resp.Result()
	var got []componentInfo
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3 (resource, service, endpoint)", len(got))
	}
	if got[0].Kind != "resource" || got[0].Label != "res" {
		t.Errorf("got[0] = %+v, want resource/res", got[0])
	}
	if got[2].Kind != "endpoint" || got[2].Label != "ep" {
		t.Errorf("got[2] = %+v, want endpoint/ep", got[2])
	}
}
