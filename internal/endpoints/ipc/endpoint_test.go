package ipc

import (
	"testing"
	"time"

	"github.com/ridgedb/ridge/internal/config"
	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
	"github.com/ridgedb/ridge/internal/services/brokersvc"
	"github.com/ridgedb/ridge/internal/services/sessionsvc"
	"github.com/ridgedb/ridge/internal/session"
	"github.com/ridgedb/ridge/internal/wire"
)

type echoService struct{ id uint32 }

func (e *echoService) Label() string                      { return "echo" }
func (e *echoService) ID() uint32                         { return e.id }
func (e *echoService) Setup(*framework.Environment) error { return nil }
func (e *echoService) Start(*framework.Environment) error { return nil }
func (e *echoService) Shutdown(*framework.Environment) error { return nil }
func (e *echoService) Call(req contract.Request, resp contract.Response) (bool, error) {
	return true, resp.Body(req.Payload())
}

func buildEnvelope(t *testing.T, serviceID uint32, sessionID uint64, body []byte) []byte {
	t.Helper()
	header := wire.EncodeHeader(wire.Header{ServiceID: serviceID, SessionID: sessionID})
	var buf []byte
	buf = wire.AppendLengthDelimited(buf, header)
	buf = wire.AppendLengthDelimited(buf, body)
	return buf
}

func TestEndpointSessionRoundTrip(t *testing.T) {
	env := framework.NewEnvironment(framework.BootModeDatabaseServer, config.DefaultConfig(), nil, nil)
	srv := framework.NewServer(env)

	sess := sessionsvc.New(session.NewVariableDeclarationSet(nil), nil, nil, nil)
	broker := brokersvc.New(nil)
	srv.AddService(routing.New(nil))
	srv.AddService(&echoService{id: 99})
	srv.AddService(sess)
	srv.AddService(broker)

	ep := New(Config{Enabled: true, Threads: 4, DatabaseName: "ridge"}, sess, broker, nil, contract.DatabaseInfo{Name: "ridge"}, nil)
	srv.AddEndpoint(ep)

	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown()

	client, err := ep.Dial("test-client", false)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	payload := buildEnvelope(t, 99, 1, []byte("hello"))
	if err := client.region.request.push(payload); err != nil {
		t.Fatalf("push: %v", err)
	}

	msg, err := client.region.response.waitPop(2 * time.Second)
	if err != nil {
		t.Fatalf("waitPop: %v", err)
	}
	if len(msg) == 0 || msg[0] != kindBody {
		t.Fatalf("response kind = %v, want kindBody", msg)
	}
	if string(msg[1:]) != "hello" {
		t.Errorf("response body = %q, want %q", msg[1:], "hello")
	}
}

func TestDialRejectsBeyondAdminCapacity(t *testing.T) {
	env := framework.NewEnvironment(framework.BootModeDatabaseServer, config.DefaultConfig(), nil, nil)
	srv := framework.NewServer(env)

	sess := sessionsvc.New(session.NewVariableDeclarationSet(nil), nil, nil, nil)
	broker := brokersvc.New(nil)
	srv.AddService(routing.New(nil))
	srv.AddService(sess)
	srv.AddService(broker)

	ep := New(Config{Enabled: true, Threads: 4, AdminSessions: 1}, sess, broker, nil, contract.DatabaseInfo{}, nil)
	srv.AddEndpoint(ep)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown()

	if _, err := ep.Dial("admin-1", true); err != nil {
		t.Fatalf("first admin Dial: %v", err)
	}
	if _, err := ep.Dial("admin-2", true); err == nil {
		t.Error("second admin Dial should have failed: AdminSessions=1")
	}
}
