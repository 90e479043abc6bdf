package routing

import (
	"strings"
	"testing"

	"github.com/ridgedb/ridge/internal/config"
	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/session"
	"github.com/ridgedb/ridge/internal/wire"
)

type echoService struct {
	id      uint32
	lastReq contract.Request
}

func (e *echoService) Label() string                                  { return "echo" }
func (e *echoService) ID() uint32                                     { return e.id }
func (e *echoService) Setup(*framework.Environment) error             { return nil }
func (e *echoService) Start(*framework.Environment) error             { return nil }
func (e *echoService) Shutdown(*framework.Environment) error          { return nil }
func (e *echoService) Call(req contract.Request, resp contract.Response) (bool, error) {
	e.lastReq = req
	return true, resp.Body(req.Payload())
}

func newTestEnv() (*framework.Server, *framework.Environment) {
	env := framework.NewEnvironment(framework.BootModeDatabaseServer, config.DefaultConfig(), nil, nil)
	return framework.NewServer(env), env
}

func buildEnvelope(t *testing.T, serviceID uint32, sessionID uint64, body []byte) []byte {
	t.Helper()
	header := wire.EncodeHeader(wire.Header{ServiceID: serviceID, SessionID: sessionID})
	var buf []byte
	buf = wire.AppendLengthDelimited(buf, header)
	buf = wire.AppendLengthDelimited(buf, body)
	return buf
}

func TestRoutingForwardsToRegisteredService(t *testing.T) {
	srv, env := newTestEnv()
	rsvc := New(nil)
	srv.AddService(rsvc)
	echo := &echoService{id: 42}
	srv.AddService(echo)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	payload := buildEnvelope(t, 42, 7, []byte("hello"))
	req := contract.NewMemoryRequest(7, ServiceIDRouting, payload, contract.DatabaseInfo{Name: "ridge"},
		session.SessionInfo{}, session.NewStore(), nil)
	resp := contract.NewMemoryResponse()

	ok, err := rsvc.Call(req, resp)
	if err != nil || !ok {
		t.Fatalf("Call() = %v, %v; want true, nil", ok, err)
	}
	_, body, errRec := resp.Result()
	if errRec != nil {
		t.Fatalf("unexpected error record: %+v", errRec)
	}
	if string(body) != "hello" {
		t.Fatalf("body = %q, want %q", body, "hello")
	}
	if echo.lastReq.SessionID() != 7 {
		t.Fatalf("forwarded session id = %d, want 7", echo.lastReq.SessionID())
	}
	_ = env
}

func TestRoutingUnknownServiceYieldsServiceUnavailable(t *testing.T) {
	srv, _ := newTestEnv()
	rsvc := New(nil)
	srv.AddService(rsvc)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	payload := buildEnvelope(t, 9999, 1, nil)
	req := contract.NewMemoryRequest(1, ServiceIDRouting, payload, contract.DatabaseInfo{}, session.SessionInfo{}, session.NewStore(), nil)
	resp := contract.NewMemoryResponse()

	ok, err := rsvc.Call(req, resp)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if ok {
		t.Fatal("expected Call to report false for unknown service")
	}
	_, _, rec := resp.Result()
	if rec == nil || rec.Code != contract.CodeServiceUnavailable {
		t.Fatalf("record = %+v, want SERVICE_UNAVAILABLE", rec)
	}
	if !strings.Contains(rec.Message, "9999") {
		t.Fatalf("message %q does not mention 9999", rec.Message)
	}
}
