package ipc

import (
	"fmt"
	"sync"

	"github.com/ridgedb/ridge/internal/contract"
	"github.com/ridgedb/ridge/internal/services/brokersvc"
)

// envelope kinds tag what a response-wire message carries, since (unlike
// the TCP endpoint's framed connection) one IPC session has exactly one
// dedicated response wire.
const (
	kindBodyHead byte = 0
	kindBody     byte = 1
	kindError    byte = 2
)

// response is the IPC endpoint's contract.Response: each terminal event
// (or BodyHead) is pushed as one message on the session's dedicated
// response wire.
type response struct {
	wire     *wire
	cancel   *brokersvc.CancelFlag
	terminal contract.TerminalState

	sessionID uint64
	chMu      sync.Mutex
	channels  map[string]*channel
	free      []*wire // unused datachannel wires available to AcquireChannel
}

func newResponse(w *wire, cancel *brokersvc.CancelFlag, freeChannelWires []*wire) *response {
	return &response{
		wire:     w,
		cancel:   cancel,
		channels: make(map[string]*channel),
		free:     freeChannelWires,
	}
}

func (r *response) SetSessionID(id uint64) { r.sessionID = id }

func (r *response) BodyHead(payload []byte) error {
	if err := r.terminal.RecordBodyHead(); err != nil {
		return err
	}
	return r.wire.push(append([]byte{kindBodyHead}, payload...))
}

func (r *response) Body(payload []byte) error {
	if err := r.terminal.RecordTerminal(); err != nil {
		return err
	}
	return r.wire.push(append([]byte{kindBody}, payload...))
}

func (r *response) Error(rec contract.Record) error {
	if err := r.terminal.RecordTerminal(); err != nil {
		return err
	}
	body := append([]byte{kindError}, []byte(string(rec.Code)+"\x00")...)
	body = append(body, rec.Message...)
	return r.wire.push(body)
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
	// Out-of-band blob relay rides the same out-of-scope shared-memory
	// transport as everything else here (spec.md §1); ridge enforces only
	// the terminal-event ordering constraint spec.md §4.8 names.
	return nil
}

func (r *response) AcquireChannel(name string, maxWriterCount int) (contract.DataChannel, error) {
	r.chMu.Lock()
	defer r.chMu.Unlock()
	if ch, ok := r.channels[name]; ok {
		return ch, nil
	}
	if len(r.free) == 0 {
		return nil, fmt.Errorf("ipc: %w: no datachannel buffers available", contract.ErrAlreadyTerminated)
	}
	w := r.free[len(r.free)-1]
	r.free = r.free[:len(r.free)-1]
	ch := &channel{name: name, maxWriters: maxWriterCount, wire: w}
	r.channels[name] = ch
	return ch, nil
}

func (r *response) ReleaseChannel(dc contract.DataChannel) error {
	ch, ok := dc.(*channel)
	if !ok {
		return fmt.Errorf("ipc: not an ipc data channel: %T", dc)
	}
	r.chMu.Lock()
	delete(r.channels, ch.name)
	r.free = append(r.free, ch.wire)
	r.chMu.Unlock()
	return nil
}

// channel is the IPC endpoint's DataChannel: it owns exactly one
// per-result-set wire (spec.md §6's "per-result-set wires
// (datachannel_buffer_size KiB × max_datachannel_buffers)"), shared by up
// to maxWriterCount concurrent Writers, each message tagged with a
// one-byte writer index.
type channel struct {
	mu         sync.Mutex
	name       string
	maxWriters int
	wire       *wire
	writers    int
	nextIndex  byte
}

func (c *channel) Name() string { return c.name }

func (c *channel) Acquire() (contract.Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxWriters > 0 && c.writers >= c.maxWriters {
		return nil, fmt.Errorf("ipc: channel %q at max writer count %d", c.name, c.maxWriters)
	}
	idx := c.nextIndex
	c.nextIndex++
	c.writers++
	return &writer{channel: c, index: idx}, nil
}

func (c *channel) Release(contract.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writers > 0 {
		c.writers--
	}
	return nil
}

type writer struct {
	channel *channel
	index   byte
}

func (w *writer) Write(p []byte) error {
	return w.channel.wire.push(append([]byte{w.index}, p...))
}

// Commit has nothing to flush: every Write is already its own wire
// message.
func (w *writer) Commit() error { return nil }
