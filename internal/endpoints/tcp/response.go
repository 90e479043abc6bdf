package tcp

import (
	"fmt"
	"sync"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/services/brokersvc"
)

// response is the TCP endpoint's contract.Response implementation: it
// owns the connection's write mutex for the duration of one Call and
// turns each terminal event, and each data-channel write, directly into
// response frames (spec.md §6 frame layout).
type response struct {
	mu       *sync.Mutex // the session's shared write mutex, serializing all frames
	conn     frameWriter
	slot     uint16
	cancel   *brokersvc.CancelFlag
	terminal contract.TerminalState

	sessionID  uint64
	chMu       sync.Mutex
	channels   map[string]*channel
	nextWriter byte
}

// frameWriter is the subset of net.Conn response.write needs; it exists so
// tests can substitute a bytes.Buffer.
type frameWriter interface {
	Write(p []byte) (int, error)
}

func newResponse(conn frameWriter, mu *sync.Mutex, slot uint16, cancel *brokersvc.CancelFlag) *response {
	return &response{
		conn:     conn,
		mu:       mu,
		slot:     slot,
		cancel:   cancel,
		channels: make(map[string]*channel),
	}
}

func (r *response) SetSessionID(id uint64) { r.sessionID = id }

func (r *response) BodyHead(payload []byte) error {
	if err := r.terminal.RecordBodyHead(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeResponseFrame(r.conn, RespSessionBodyhead, r.slot, nil, payload)
}

func (r *response) Body(payload []byte) error {
	if err := r.terminal.RecordTerminal(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeResponseFrame(r.conn, RespSessionPayload, r.slot, nil, payload)
}

func (r *response) Error(rec contract.Record) error {
	if err := r.terminal.RecordTerminal(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return writeResponseFrame(r.conn, RespSessionPayload, r.slot, nil, encodeDiagnostic(rec))
}

func (r *response) CheckCancel() bool {
	if r.cancel == nil {
		return false
	}
	return r.cancel.Canceled()
}

func (r *response) AddBlob(contract.Blob) error {
	if r.terminal.Done() {
		return contract.ErrAlreadyTerminated
	}
	// Out-of-band blob relay is an out-of-scope wire-level collaborator
	// (spec.md §1); ridge records the terminal-event ordering constraint
	// only, per spec.md §4.8's "may only be called before the terminal
	// event."
	return nil
}

func (r *response) AcquireChannel(name string, maxWriterCount int) (contract.DataChannel, error) {
	r.chMu.Lock()
	defer r.chMu.Unlock()
	if ch, ok := r.channels[name]; ok {
		return ch, nil
	}
	r.mu.Lock()
	err := writeResponseFrame(r.conn, RespResultSetHello, r.slot, nil, []byte(name))
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	ch := &channel{name: name, maxWriters: maxWriterCount, resp: r}
	r.channels[name] = ch
	return ch, nil
}

func (r *response) ReleaseChannel(dc contract.DataChannel) error {
	ch, ok := dc.(*channel)
	if !ok {
		return fmt.Errorf("tcp: not a tcp data channel: %T", dc)
	}
	r.chMu.Lock()
	delete(r.channels, ch.name)
	r.chMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	return writeResponseFrame(r.conn, RespResultSetBye, r.slot, nil, []byte(ch.name))
}

// channel is the TCP endpoint's DataChannel: every Write on every Writer
// it hands out goes straight to a RespResultSetPayload frame tagged with
// that writer's index, serialized through the owning response's shared
// write mutex.
type channel struct {
	mu         sync.Mutex
	name       string
	maxWriters int
	resp       *response
	writers    []*writer
}

func (c *channel) Name() string { return c.name }

func (c *channel) Acquire() (contract.Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxWriters > 0 && len(c.writers) >= c.maxWriters {
		return nil, fmt.Errorf("tcp: channel %q at max writer count %d", c.name, c.maxWriters)
	}
	idx := c.resp.nextWriter
	c.resp.nextWriter++
	w := &writer{channel: c, index: idx}
	c.writers = append(c.writers, w)
	return w, nil
}

func (c *channel) Release(w contract.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cw, ok := w.(*writer)
	if !ok {
		return fmt.Errorf("tcp: not a tcp writer: %T", w)
	}
	for i, existing := range c.writers {
		if existing == cw {
			c.writers = append(c.writers[:i], c.writers[i+1:]...)
			return nil
		}
	}
	return nil
}

type writer struct {
	channel *channel
	index   byte
}

func (w *writer) Write(p []byte) error {
	idx := w.index
	w.channel.resp.mu.Lock()
	defer w.channel.resp.mu.Unlock()
	return writeResponseFrame(w.channel.resp.conn, RespResultSetPayload, w.channel.resp.slot, &idx, p)
}

// Commit has nothing to flush: every Write already went straight to the
// wire as its own frame.
func (w *writer) Commit() error { return nil }

// encodeDiagnostic renders a server-diagnostics record as a tiny
// length-prefixed "code\x00message" payload — ridge's concrete encoding
// of spec.md §6's "payload_type tag for SERVER_DIAGNOSTICS", since no
// code-generated message type exists for it.
func encodeDiagnostic(rec contract.Record) []byte {
	return append([]byte(string(rec.Code)+"\x00"), rec.Message...)
}
