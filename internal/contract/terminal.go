package contract

import "errors"

// ErrAlreadyTerminated is returned by Body/Error/BodyHead once a Response
// has already recorded its one allowed terminal event (or, for BodyHead,
// once it has already been called).
var ErrAlreadyTerminated = errors.New("contract: response already terminated")

// terminalPhase tracks which of the four legal event sequences a Response
// has recorded so far (spec.md invariant 7): {body}, {error},
// {body_head,body}, or {body_head,error} — nothing else.
type terminalPhase int

const (
	phaseNone terminalPhase = iota
	phaseHeadSent
	phaseDone
)

// TerminalState is embedded (or held) by concrete Response implementations
// — in this package and in every endpoint package — to get the
// single-terminal-event invariant for free, independent of how the bytes
// actually reach the wire.
type TerminalState struct {
	phase terminalPhase
}

// RecordBodyHead transitions into the "head sent" phase, or fails if any
// terminal event (including a previous BodyHead) already happened.
func (t *TerminalState) RecordBodyHead() error {
	if t.phase != phaseNone {
		return ErrAlreadyTerminated
	}
	t.phase = phaseHeadSent
	return nil
}

// RecordTerminal transitions into the "done" phase, or fails if a
// terminal event was already recorded.
func (t *TerminalState) RecordTerminal() error {
	if t.phase == phaseDone {
		return ErrAlreadyTerminated
	}
	t.phase = phaseDone
	return nil
}

// Done reports whether a terminal event has already been recorded —
// AddBlob's "only before the terminal event" rule (spec.md §4.8) checks
// this.
func (t *TerminalState) Done() bool {
	return t.phase == phaseDone
}

// terminalState is the historical unexported alias kept for this
// package's own Response implementation.
type terminalState = TerminalState
