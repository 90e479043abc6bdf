package tcp

import (
	"net"
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

func (e *echoService) Label() string                         { return "echo" }
func (e *echoService) ID() uint32                            { return e.id }
func (e *echoService) Setup(*framework.Environment) error    { return nil }
func (e *echoService) Start(*framework.Environment) error    { return nil }
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

func TestHandshakeAndPayloadRoundTrip(t *testing.T) {
	env := framework.NewEnvironment(framework.BootModeDatabaseServer, config.DefaultConfig(), nil, nil)
	srv := framework.NewServer(env)

	sess := sessionsvc.New(session.NewVariableDeclarationSet(nil), nil, nil, nil)
	broker := brokersvc.New(nil)
	srv.AddService(routing.New(nil))
	srv.AddService(&echoService{id: 7})
	srv.AddService(sess)
	srv.AddService(broker)

	ep := New(Config{Enabled: true, Host: "127.0.0.1", Port: 0}, sess, broker, nil, contract.DatabaseInfo{Name: "ridge"}, nil)
	srv.AddEndpoint(ep)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown()

	conn, err := net.DialTimeout("tcp", ep.listener.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := writeResponseFrame(conn, ResponseType(ReqSessionHello), 0, nil, []byte("client-a")); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	hello, err := readHelloReply(conn)
	if err != nil {
		t.Fatalf("read hello reply: %v", err)
	}
	if hello.Type != RespSessionHelloOK {
		t.Fatalf("hello reply type = %d, want RespSessionHelloOK", hello.Type)
	}

	payload := buildEnvelope(t, 7, uint64(hello.Slot), []byte("ping"))
	if err := writeResponseFrame(conn, ResponseType(ReqSessionPayload), hello.Slot, nil, payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	reply, err := readHelloReply(conn)
	if err != nil {
		t.Fatalf("read payload reply: %v", err)
	}
	if reply.Type != RespSessionPayload {
		t.Fatalf("reply type = %d, want RespSessionPayload", reply.Type)
	}
	if string(reply.Payload) != "ping" {
		t.Errorf("reply payload = %q, want %q", reply.Payload, "ping")
	}
}

// readHelloReply reads one server->client frame using the request frame's
// header layout (identical field widths), for the test client's own use.
func readHelloReply(conn net.Conn) (requestFrame, error) {
	f, err := readRequestFrame(conn)
	return requestFrame{Type: RequestType(f.Type), Slot: f.Slot, Payload: f.Payload}, err
}
