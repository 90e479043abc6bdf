package contract

import (
	"fmt"
	"sync"

	"github.com/ridgedb/ridge/internal/session"
)

// MemoryRequest is an in-process Request implementation: endpoints that do
// not yet exist (or tests) construct one directly instead of parsing it off
// a wire.
type MemoryRequest struct {
	sessionID uint64
	serviceID uint32
	local     uint64
	payload   []byte
	dbInfo    DatabaseInfo
	sessInfo  session.SessionInfo
	store     *session.Store
	vars      *session.VariableSet
	blobs     map[string]Blob
}

// NewMemoryRequest builds a Request around the given fields. store and vars
// may be nil; SessionStore/SessionVariableSet then return nil (no empty
// instance is created), so callers must supply non-nil values if the
// service under test touches them.
func NewMemoryRequest(sessionID uint64, serviceID uint32, payload []byte, dbInfo DatabaseInfo, sessInfo session.SessionInfo, store *session.Store, vars *session.VariableSet) *MemoryRequest {
	return &MemoryRequest{
		sessionID: sessionID,
		serviceID: serviceID,
		payload:   payload,
		dbInfo:    dbInfo,
		sessInfo:  sessInfo,
		store:     store,
		vars:      vars,
		blobs:     make(map[string]Blob),
	}
}

func (r *MemoryRequest) SessionID() uint64              { return r.sessionID }
func (r *MemoryRequest) ServiceID() uint32              { return r.serviceID }
func (r *MemoryRequest) LocalID() uint64                { return r.local }
func (r *MemoryRequest) Payload() []byte                { return r.payload }
func (r *MemoryRequest) DatabaseInfo() DatabaseInfo     { return r.dbInfo }
func (r *MemoryRequest) SessionInfo() session.SessionInfo { return r.sessInfo }
func (r *MemoryRequest) SessionStore() *session.Store   { return r.store }
func (r *MemoryRequest) SessionVariableSet() *session.VariableSet { return r.vars }

func (r *MemoryRequest) Blob(name string) (Blob, bool) {
	b, ok := r.blobs[name]
	return b, ok
}

// AddBlob lets the test/endpoint harness attach an inbound blob before the
// request is dispatched.
func (r *MemoryRequest) AddBlob(b Blob) { r.blobs[b.Name] = b }

// MemoryResponse is an in-process Response: it buffers whatever the service
// wrote so a test (or a future endpoint implementation) can inspect it.
// Grounded on tateyama's response contract semantics, backed by plain Go
// slices and maps instead of a wire encoder.
type MemoryResponse struct {
	mu sync.Mutex
	terminalState

	sessionID uint64
	bodyHead  []byte
	body      []byte
	errRecord *Record
	canceled  bool
	blobs     map[string]Blob
	channels  map[string]*memoryChannel
}

// NewMemoryResponse returns an empty response ready for a service to write
// into.
func NewMemoryResponse() *MemoryResponse {
	return &MemoryResponse{
		blobs:    make(map[string]Blob),
		channels: make(map[string]*memoryChannel),
	}
}

func (r *MemoryResponse) SetSessionID(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionID = id
}

func (r *MemoryResponse) SessionID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

func (r *MemoryResponse) BodyHead(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.RecordBodyHead(); err != nil {
		return err
	}
	r.bodyHead = append([]byte(nil), payload...)
	return nil
}

func (r *MemoryResponse) Body(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.RecordTerminal(); err != nil {
		return err
	}
	r.body = append([]byte(nil), payload...)
	return nil
}

func (r *MemoryResponse) Error(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.RecordTerminal(); err != nil {
		return err
	}
	r.errRecord = &rec
	return nil
}

// Result returns whatever was recorded: at most one of (body) or (err) is
// non-nil, and bodyHead reflects whether BodyHead was called first.
func (r *MemoryResponse) Result() (bodyHead, body []byte, err *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodyHead, r.body, r.errRecord
}

func (r *MemoryResponse) AcquireChannel(name string, maxWriterCount int) (DataChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[name]; ok {
		return ch, nil
	}
	ch := &memoryChannel{name: name, maxWriters: maxWriterCount}
	r.channels[name] = ch
	return ch, nil
}

func (r *MemoryResponse) ReleaseChannel(ch DataChannel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mc, ok := ch.(*memoryChannel)
	if !ok {
		return fmt.Errorf("contract: not a memory channel: %T", ch)
	}
	mc.releaseAll()
	delete(r.channels, mc.name)
	return nil
}

// RequestCancel marks the response as observed-canceled for CheckCancel.
func (r *MemoryResponse) RequestCancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled = true
}

func (r *MemoryResponse) CheckCancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canceled
}

func (r *MemoryResponse) AddBlob(b Blob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Done() {
		return ErrAlreadyTerminated
	}
	if _, exists := r.blobs[b.Name]; exists {
		return fmt.Errorf("contract: duplicate blob name %q", b.Name)
	}
	r.blobs[b.Name] = b
	return nil
}

// memoryChannel is an in-process DataChannel: each Writer appends to its
// own buffer, readable through that writer's Bytes() whether or not it
// has been committed.
type memoryChannel struct {
	mu         sync.Mutex
	name       string
	maxWriters int
	writers    []*memoryWriter
}

func (c *memoryChannel) Name() string { return c.name }

func (c *memoryChannel) Acquire() (Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxWriters > 0 && len(c.writers) >= c.maxWriters {
		return nil, fmt.Errorf("contract: channel %q at max writer count %d", c.name, c.maxWriters)
	}
	w := &memoryWriter{}
	c.writers = append(c.writers, w)
	return w, nil
}

func (c *memoryChannel) Release(w Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	mw, ok := w.(*memoryWriter)
	if !ok {
		return fmt.Errorf("contract: not a memory writer: %T", w)
	}
	for i, existing := range c.writers {
		if existing == mw {
			c.writers = append(c.writers[:i], c.writers[i+1:]...)
			return nil
		}
	}
	return nil
}

func (c *memoryChannel) releaseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writers = nil
}

type memoryWriter struct {
	mu        sync.Mutex
	buf       []byte
	committed bool
}

func (w *memoryWriter) Write(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	return nil
}

func (w *memoryWriter) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.committed = true
	return nil
}

func (w *memoryWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.buf...)
}
