package ipc

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/framework"
	"github.com/ridgedb/ridge/internal/routing"
	"github.com/ridgedb/ridge/internal/services/brokersvc"
	"github.com/ridgedb/ridge/internal/services/sessionsvc"
	"github.com/ridgedb/ridge/internal/session"
	"github.com/ridgedb/ridge/internal/statusarea"
)

// Config controls the shared-memory endpoint (spec.md §6
// "[ipc_endpoint]").
type Config struct {
	Enabled               bool
	DatabaseName          string
	Threads               uint32 // max concurrent sessions
	DatachannelBufferSize uint32 // KiB
	MaxDatachannelBuffers uint32
	AdminSessions         uint8

	// RequestWireSize/ResponseWireSize default to spec.md §6's 4KiB/16KiB
	// when zero.
	RequestWireSize  uint32
	ResponseWireSize uint32
}

func (c Config) requestWireSize() uint32 {
	if c.RequestWireSize != 0 {
		return c.RequestWireSize
	}
	return 4 << 10
}

func (c Config) responseWireSize() uint32 {
	if c.ResponseWireSize != 0 {
		return c.ResponseWireSize
	}
	return 16 << 10
}

// connectRequest is one pending accept, the in-process stand-in for a new
// arrival on the process-wide connection_queue spec.md §6 describes.
type connectRequest struct {
	label  string
	admin  bool
	result chan *Client
	errc   chan error
}

// Endpoint is ridge's shared-memory IPC endpoint: a slot allocator plus a
// per-session Region (request/response/datachannel wires) carved out of a
// MemoryProvider, and one worker goroutine per accepted session.
type Endpoint struct {
	cfg    Config
	sess   *sessionsvc.Service
	broker *brokersvc.Service
	area   *statusarea.Area
	dbInfo contract.DatabaseInfo
	log    *zap.Logger

	connectionQueue chan *connectRequest
	done            chan struct{}
	wg              sync.WaitGroup

	mu        sync.Mutex
	slots     []bool // true = occupied; index is the low-bits slot number
	adminUsed uint8
}

// New constructs the IPC endpoint.
func New(cfg Config, sess *sessionsvc.Service, broker *brokersvc.Service, area *statusarea.Area, dbInfo contract.DatabaseInfo, log *zap.Logger) *Endpoint {
	return &Endpoint{
		cfg:             cfg,
		sess:            sess,
		broker:          broker,
		area:            area,
		dbInfo:          dbInfo,
		log:             log,
		connectionQueue: make(chan *connectRequest, 64),
		slots:           make([]bool, cfg.Threads),
	}
}

func (e *Endpoint) Label() string { return "ipc-shared-memory" }

func (e *Endpoint) Setup(*framework.Environment) error { return nil }

func (e *Endpoint) Start(env *framework.Environment) error {
	if !e.cfg.Enabled {
		return nil
	}
	e.done = make(chan struct{})
	e.wg.Add(1)
	go e.acceptLoop(env)
	return nil
}

func (e *Endpoint) Shutdown(*framework.Environment) error {
	if e.done == nil {
		return nil
	}
	close(e.done)
	e.wg.Wait()
	return nil
}

func (e *Endpoint) acceptLoop(env *framework.Environment) {
	defer e.wg.Done()

	routingSvc, ok := env.FindServiceByID(routing.ServiceIDRouting)
	if !ok {
		return
	}
	svc, ok := routingSvc.(framework.Service)
	if !ok {
		return
	}

	for {
		select {
		case <-e.done:
			return
		case req := <-e.connectionQueue:
			e.accept(svc, req)
		}
	}
}

// Dial enqueues a new IPC session the way a client process attaching to
// `<database_name>-<session_id>` would, and blocks until the endpoint
// accepts it (or the endpoint is not running). It is ridge's in-process
// substitute for attaching to the real shared-memory segment (out of
// scope per spec.md §1), used by same-process callers and tests.
func (e *Endpoint) Dial(label string, admin bool) (*Client, error) {
	req := &connectRequest{label: label, admin: admin, result: make(chan *Client, 1), errc: make(chan error, 1)}
	select {
	case e.connectionQueue <- req:
	case <-time.After(time.Second):
		return nil, fmt.Errorf("ipc: connection queue full")
	}
	select {
	case c := <-req.result:
		return c, nil
	case err := <-req.errc:
		return nil, err
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("ipc: timed out waiting for accept")
	}
}

func (e *Endpoint) accept(svc framework.Service, req *connectRequest) {
	slot, ok := e.allocateSlot(req.admin)
	if !ok {
		req.errc <- fmt.Errorf("ipc: %w", contract.ErrAlreadyTerminated)
		return
	}

	sessionID := uint64(slot)
	region := e.newRegion()
	info := session.SessionInfo{
		ID:             sessionID,
		Label:          req.label,
		StartTime:      time.Now(),
		ConnectionType: session.ConnectionIPC,
		ConnectionInfo: fmt.Sprintf("%s-%d", e.cfg.DatabaseName, sessionID),
		UserKind:       session.UserStandard,
	}
	if req.admin {
		info.UserKind = session.UserAdministrator
	}
	e.sess.Open(info)
	cancel := e.broker.Register(sessionID)

	e.wg.Add(1)
	go e.serveSession(svc, sessionID, slot, region, cancel)

	req.result <- &Client{region: region, timeout: 5 * time.Second}
}

// serveSession is the worker a real deployment spawns per accepted session
// (spec.md §6): poll the request wire, dispatch through routing, push the
// outcome to the response wire, until the endpoint shuts down or the
// session says goodbye.
func (e *Endpoint) serveSession(svc framework.Service, sessionID uint64, slot uint32, region *region, cancel *brokersvc.CancelFlag) {
	defer e.wg.Done()
	defer e.releaseSlot(slot)
	defer e.broker.Unregister(sessionID)
	defer e.sess.Close(sessionID)

	for {
		select {
		case <-e.done:
			return
		default:
		}

		payload, ok, err := region.request.tryPop()
		if err != nil {
			if e.log != nil {
				e.log.Warn("ipc endpoint: request wire error", zap.Error(err))
			}
			return
		}
		if !ok {
			time.Sleep(200 * time.Microsecond)
			continue
		}

		ctx, ok := e.sess.Find(sessionID)
		if !ok {
			return
		}
		req := contract.NewMemoryRequest(sessionID, routing.ServiceIDRouting, payload, e.dbInfo, ctx.Info, ctx.Store, ctx.Vars)
		resp := newResponse(region.response, cancel, region.freeChannelWires())
		_, _ = svc.Call(req, resp)
	}
}

func (e *Endpoint) allocateSlot(admin bool) (uint32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if admin {
		if e.adminUsed >= e.cfg.AdminSessions {
			return 0, false
		}
		e.adminUsed++
		return adminSlotFlag | (uint32(len(e.slots)) + uint32(e.adminUsed)), true
	}
	for i, used := range e.slots {
		if !used {
			e.slots[i] = true
			return uint32(i), true
		}
	}
	return 0, false
}

func (e *Endpoint) releaseSlot(slot uint32) {
	if slot&adminSlotFlag != 0 {
		e.mu.Lock()
		if e.adminUsed > 0 {
			e.adminUsed--
		}
		e.mu.Unlock()
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if int(slot) < len(e.slots) {
		e.slots[slot] = false
	}
}

// adminSlotFlag is the slot index's top bit, flagging an admin session
// (spec.md §6: "assigns a slot index (low bits; top bit flags admin
// session)").
const adminSlotFlag uint32 = 1 << 31

// region is one session's carved-out slice of shared memory: request wire,
// response wire, and a pool of datachannel wires.
type region struct {
	provider MemoryProvider
	request  *wire
	response *wire
	channels []*wire
}

func (e *Endpoint) newRegion() *region {
	reqSize := e.cfg.requestWireSize()
	respSize := e.cfg.responseWireSize()
	chSize := e.cfg.DatachannelBufferSize * 1024
	if chSize == 0 {
		chSize = 64 * 1024
	}
	chCount := e.cfg.MaxDatachannelBuffers
	if chCount == 0 {
		chCount = 4
	}

	total := reqSize + respSize + chSize*chCount
	provider := NewByteSliceProvider(total)

	r := &region{
		provider: provider,
		request:  newWire(provider, 0, reqSize),
		response: newWire(provider, reqSize, respSize),
	}
	base := reqSize + respSize
	for i := uint32(0); i < chCount; i++ {
		r.channels = append(r.channels, newWire(provider, base+i*chSize, chSize))
	}
	return r
}

func (r *region) freeChannelWires() []*wire {
	out := make([]*wire, len(r.channels))
	copy(out, r.channels)
	return out
}

// Client is the in-process counterpart to a real client process attached
// to an IPC session's shared region: it pushes request payloads and
// blocks for the matching response, the way a real client would poll the
// region from the other side.
type Client struct {
	region  *region
	timeout time.Duration
}

// Send pushes payload onto the session's request wire and waits for the
// worker to push a reply onto the response wire, returning the reply's
// kind tag stripped off.
func (c *Client) Send(payload []byte) (kind byte, body []byte, err error) {
	if err := c.region.request.push(payload); err != nil {
		return 0, nil, err
	}
	msg, err := c.region.response.waitPop(c.timeout)
	if err != nil {
		return 0, nil, err
	}
	if len(msg) == 0 {
		return 0, nil, fmt.Errorf("ipc: empty response message")
	}
	return msg[0], msg[1:], nil
}
