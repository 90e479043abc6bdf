package session

import "time"

// ConnectionType tags which endpoint accepted a session.
type ConnectionType string

const (
	ConnectionIPC ConnectionType = "ipc"
	ConnectionTCP ConnectionType = "tcp"
)

// UserKind distinguishes administrative sessions from ordinary clients.
type UserKind string

const (
	UserAdministrator UserKind = "administrator"
	UserStandard      UserKind = "standard"
)

// SessionInfo is the read-only session metadata every Request carries
// (spec.md §3 "Session info").
type SessionInfo struct {
	ID              uint64
	Label           string
	ApplicationName string
	StartTime       time.Time
	ConnectionType  ConnectionType
	ConnectionInfo  string
	UserName        string
	UserKind        UserKind
}
