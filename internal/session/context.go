package session

import "sync/atomic"

// ShutdownRequest is the monotonic shutdown state of a session
// (spec.md §3 "Session context"): forceful dominates graceful dominates
// nothing, and nothing can never be re-set once escalated.
type ShutdownRequest int32

const (
	ShutdownNone ShutdownRequest = iota
	ShutdownGraceful
	ShutdownForceful
)

// Context is the per-session state an endpoint creates on connection and
// holds until it releases its strong reference (spec.md §3 "Session
// context"). It holds no reference to the endpoint's worker: Go has no
// distinct weak-pointer type, and the cycle the C++ original avoids with
// strong/weak simply doesn't arise under garbage collection.
type Context struct {
	Info  SessionInfo
	Vars  *VariableSet
	Store *Store

	shutdown atomic.Int32
}

// NewContext creates a session context in the "nothing requested" shutdown
// state.
func NewContext(info SessionInfo, vars *VariableSet) *Context {
	return &Context{
		Info:  info,
		Vars:  vars,
		Store: NewStore(),
	}
}

// RequestShutdown escalates the session's shutdown state monotonically:
// calling it with ShutdownGraceful after ShutdownForceful has no effect,
// and ShutdownNone is never accepted (there is nothing to request).
func (c *Context) RequestShutdown(req ShutdownRequest) {
	if req == ShutdownNone {
		return
	}
	for {
		cur := ShutdownRequest(c.shutdown.Load())
		if req <= cur {
			return
		}
		if c.shutdown.CompareAndSwap(int32(cur), int32(req)) {
			return
		}
	}
}

// ShutdownState reads the current monotonic shutdown request.
func (c *Context) ShutdownState() ShutdownRequest {
	return ShutdownRequest(c.shutdown.Load())
}
