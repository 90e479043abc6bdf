// Package contract defines the Request/Response interfaces endpoints
// implement and services consume (spec.md C8). The scheduler and framework
// packages never import contract; only routing and the concrete services
// depend on it, keeping the core's dependency graph a DAG the way the
// teacher's internal/domain/interfaces.go keeps boundaries interface-only.
package contract

import (
	"github.com/ridgedb/ridge/internal/session"
)

// DiagnosticCode is one of the stable server-diagnostics codes a Response
// can carry in place of a body (spec.md §7).
type DiagnosticCode string

const (
	CodeServiceUnavailable   DiagnosticCode = "SERVICE_UNAVAILABLE"
	CodeInvalidRequest       DiagnosticCode = "INVALID_REQUEST"
	CodeOperationCanceled    DiagnosticCode = "OPERATION_CANCELED"
	CodeResourceLimitReached DiagnosticCode = "RESOURCE_LIMIT_REACHED"
)

// Record is a server-diagnostics record: a stable code plus a human-facing
// message (e.g. naming the unknown service id).
type Record struct {
	Code    DiagnosticCode
	Message string
}

// DatabaseInfo identifies which database instance is serving a request.
type DatabaseInfo struct {
	Name string
}

// Blob is an out-of-band binary attachment referenced by name, either
// carried in with a Request or attached to a Response via AddBlob.
type Blob struct {
	Name string
	Data []byte
}

// Request is the immutable, service-facing view of one client call
// (spec.md §3 "Request").
type Request interface {
	SessionID() uint64
	ServiceID() uint32
	LocalID() uint64
	Payload() []byte
	DatabaseInfo() DatabaseInfo
	SessionInfo() session.SessionInfo
	SessionStore() *session.Store
	SessionVariableSet() *session.VariableSet
	Blob(name string) (Blob, bool)
}

// Writer is one producer attached to a DataChannel.
type Writer interface {
	Write(p []byte) error
	Commit() error
}

// DataChannel is a named, possibly multi-writer output stream attached to
// a Response for streaming result sets (spec.md §3 "Data channel").
type DataChannel interface {
	Name() string
	Acquire() (Writer, error)
	Release(Writer) error
}

// Response is the mutable, endpoint-owned counterpart to Request
// (spec.md §4.8). Exactly one terminal event — Body, Error, or the pair
// BodyHead+Body / BodyHead+Error — may be recorded per Response.
type Response interface {
	SetSessionID(uint64)
	BodyHead(payload []byte) error
	Body(payload []byte) error
	Error(rec Record) error
	AcquireChannel(name string, maxWriterCount int) (DataChannel, error)
	ReleaseChannel(ch DataChannel) error
	CheckCancel() bool
	AddBlob(b Blob) error
}
