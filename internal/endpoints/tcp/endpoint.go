package tcp

import (
	"fmt"
	"hash/fnv"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
	"github.com/ridgedb/ridge/internal/services/brokersvc"
	"github.com/ridgedb/ridge/internal/services/sessionsvc"
	"github.com/ridgedb/ridge/internal/session"
	"github.com/ridgedb/ridge/internal/statusarea"
)

// Config controls the TCP stream endpoint (spec.md §6 "[stream_endpoint]").
type Config struct {
	Enabled bool
	Host    string
	Port    int
	Threads int // max concurrent sessions; 0 means unbounded
}

// Endpoint is ridge's length-prefixed-frame TCP stream endpoint. Each
// accepted net.Conn is exactly one session, read in its own goroutine.
type Endpoint struct {
	cfg     Config
	sess    *sessionsvc.Service
	broker  *brokersvc.Service
	area    *statusarea.Area
	dbInfo  contract.DatabaseInfo
	log     *zap.Logger

	listener net.Listener
	wg       sync.WaitGroup

	sem chan struct{}
}

// New constructs the TCP endpoint. sess and broker are the session-control
// and endpoint-broker domain services it coordinates with to open/close
// sessions and honor cancellation.
func New(cfg Config, sess *sessionsvc.Service, broker *brokersvc.Service, area *statusarea.Area, dbInfo contract.DatabaseInfo, log *zap.Logger) *Endpoint {
	e := &Endpoint{cfg: cfg, sess: sess, broker: broker, area: area, dbInfo: dbInfo, log: log}
	if cfg.Threads > 0 {
		e.sem = make(chan struct{}, cfg.Threads)
	}
	return e
}

func (e *Endpoint) Label() string { return "tcp-stream" }

func (e *Endpoint) Setup(*framework.Environment) error { return nil }

func (e *Endpoint) Start(env *framework.Environment) error {
	if !e.cfg.Enabled {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("tcp endpoint: listen %s: %w", addr, err)
	}
	e.listener = ln

	e.wg.Add(1)
	go e.acceptLoop(env)
	return nil
}

func (e *Endpoint) Shutdown(*framework.Environment) error {
	if e.listener == nil {
		return nil
	}
	err := e.listener.Close()
	e.wg.Wait()
	return err
}

func (e *Endpoint) acceptLoop(env *framework.Environment) {
	defer e.wg.Done()
	for {
		conn, err := e.listener.Accept()
		if err != nil {
			return // listener closed: Shutdown is in progress
		}
		if e.sem != nil {
			select {
			case e.sem <- struct{}{}:
			default:
				_ = conn.Close() // at capacity: spec.md §7 "resource limit reached"
				continue
			}
		}
		e.wg.Add(1)
		go e.serve(env, conn)
	}
}

func (e *Endpoint) serve(env *framework.Environment, conn net.Conn) {
	defer e.wg.Done()
	defer conn.Close()
	if e.sem != nil {
		defer func() { <-e.sem }()
	}

	var writeMu sync.Mutex
	sessionID, ok := e.handshake(conn, &writeMu)
	if !ok {
		return
	}
	defer e.teardown(sessionID)

	slot := uint16(sessionID)
	cancel := e.broker.Register(sessionID)
	defer e.broker.Unregister(sessionID)

	routingSvc, ok := env.FindServiceByID(routing.ServiceIDRouting)
	if !ok {
		return
	}
	svc, ok := routingSvc.(framework.Service)
	if !ok {
		return
	}

	for {
		frame, err := readRequestFrame(conn)
		if err != nil {
			return // connection closed or malformed: session ends
		}

		switch frame.Type {
		case ReqSessionPayload:
			e.handlePayload(svc, conn, &writeMu, sessionID, slot, cancel, frame.Payload)
		case ReqCancel:
			e.broker.Cancel(sessionID)
		case ReqSessionBye, ReqResultSetByeOK:
			return
		default:
			if e.log != nil {
				e.log.Warn("tcp endpoint: unexpected request frame", zap.Uint8("type", uint8(frame.Type)))
			}
		}
	}
}

// handshake reads the one REQUEST_SESSION_HELLO frame a new connection must
// send, opens a session.Context via sessionsvc, and replies with
// RESPONSE_SESSION_HELLO_OK (or _NG on failure).
func (e *Endpoint) handshake(conn net.Conn, writeMu *sync.Mutex) (uint64, bool) {
	frame, err := readRequestFrame(conn)
	if err != nil || frame.Type != ReqSessionHello {
		writeMu.Lock()
		_ = writeResponseFrame(conn, RespSessionHelloNG, 0, nil, []byte("expected session hello"))
		writeMu.Unlock()
		return 0, false
	}

	sessionID := newSessionID()
	info := session.SessionInfo{
		ID:             sessionID,
		ApplicationName: string(frame.Payload),
		StartTime:      time.Now(),
		ConnectionType: session.ConnectionTCP,
		ConnectionInfo: conn.RemoteAddr().String(),
		UserKind:       session.UserStandard,
	}
	e.sess.Open(info)

	var idBuf [8]byte
	putUint64(idBuf[:], sessionID)
	writeMu.Lock()
	err = writeResponseFrame(conn, RespSessionHelloOK, uint16(sessionID), nil, idBuf[:])
	writeMu.Unlock()
	if err != nil {
		return 0, false
	}
	return sessionID, true
}

func (e *Endpoint) teardown(sessionID uint64) {
	e.sess.Close(sessionID)
}

func (e *Endpoint) handlePayload(svc framework.Service, conn net.Conn, writeMu *sync.Mutex, sessionID uint64, slot uint16, cancel *brokersvc.CancelFlag, payload []byte) {
	ctx, ok := e.sess.Find(sessionID)
	if !ok {
		return
	}
	req := contract.NewMemoryRequest(sessionID, routing.ServiceIDRouting, payload, e.dbInfo, ctx.Info, ctx.Store, ctx.Vars)
	resp := newResponse(conn, writeMu, slot, cancel)
	_, _ = svc.Call(req, resp)
}

// newSessionID mints a session id the way the teacher mints MCP session
// ids (google/uuid), folded down to a uint64 since spec.md's session_id is
// a numeric field.
func newSessionID() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(uuid.NewString()))
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
