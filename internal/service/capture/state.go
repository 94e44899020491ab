package capture

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a recording session.
type State int

const (
	// StateIdle - No session is capturing. Only reported by the Controller.
	StateIdle State = iota
	// StateRecording - Device is open, chunks are being appended.
	StateRecording
	// StateFinalizing - Stop was requested, waiting for the device finalize event.
	StateFinalizing
	// StateClosed - Payload assembled and handed to submission.
	StateClosed
	// StateDropped - Device failed; the chunks are discarded and nothing is submitted.
	StateDropped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRecording:
		return "RECORDING"
	case StateFinalizing:
		return "FINALIZING"
	case StateClosed:
		return "CLOSED"
	case StateDropped:
		return "DROPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (CLOSED or DROPPED).
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateDropped
}

// Trigger is an input to the session state machine.
type Trigger int

const (
	TriggerStop Trigger = iota
	TriggerFinalize
	TriggerFail
)

func (t Trigger) String() string {
	switch t {
	case TriggerStop:
		return "stop"
	case TriggerFinalize:
		return "finalize"
	case TriggerFail:
		return "fail"
	default:
		return fmt.Sprintf("trigger(%d)", t)
	}
}

// Errors for invalid state transitions.
var (
	ErrSessionClosed     = errors.New("recording session is closed")
	ErrInvalidTransition = errors.New("invalid recording session transition")
)

// transitions is the full table; anything missing is rejected.
//
//	RECORDING ──stop──→ FINALIZING ──finalize──→ CLOSED
//	    │                    │
//	    ├──finalize──→ CLOSED (device ended on its own)
//	    └──fail──→ DROPPED ←──fail──┘
var transitions = map[State]map[Trigger]State{
	StateRecording: {
		TriggerStop:     StateFinalizing,
		TriggerFinalize: StateClosed,
		TriggerFail:     StateDropped,
	},
	StateFinalizing: {
		TriggerFinalize: StateClosed,
		TriggerFail:     StateDropped,
	},
}

// Lifecycle manages the state machine for a single recording session.
// Thread-safe for concurrent access.
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

// NewLifecycle creates a new session lifecycle in RECORDING state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateRecording}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// AcceptsChunks returns true while the device may still deliver audio.
func (l *Lifecycle) AcceptsChunks() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateRecording || l.state == StateFinalizing
}

// Fire applies a trigger and returns the previous state.
// The state is left untouched when the transition is not in the table.
func (l *Lifecycle) Fire(t Trigger) (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	from := l.state
	if from.IsTerminal() {
		return from, ErrSessionClosed
	}
	to, ok := transitions[from][t]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, t, from)
	}
	l.state = to
	return from, nil
}
