// Package bridge moves normalized chunks across the engine boundary
// and reassembles results into the running transcript. It owns the
// model lifecycle state machine and the FIFO dispatch queue that keeps
// at most one transcription request outstanding.
package bridge

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the model lifecycle state.
type State int

const (
	// StateUnloaded - no configure sent yet.
	StateUnloaded State = iota
	// StateLoading - configure sent, waiting for ready; progress 0-100.
	StateLoading
	// StateReady - model loaded, transcription may be dispatched.
	StateReady
	// StateFailed - configure failed; retry returns to loading.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "UNLOADED"
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid state transitions.
var (
	ErrAlreadyLoading = errors.New("model load already in progress")
	ErrAlreadyReady   = errors.New("model is already ready")
	ErrNotLoading     = errors.New("model is not loading")
)

// Lifecycle manages the model lifecycle state machine. Thread-safe.
//
// State transitions:
//
//	UNLOADED → LOADING → READY
//	              │  ↖
//	              ↓    │ BeginLoad() on retry
//	            FAILED ┘
//
// Transitions are monotonic except FAILED → LOADING, which retry
// allows. Progress only moves forward; non-monotonic reports from the
// engine are clamped.
type Lifecycle struct {
	mu       sync.RWMutex
	state    State
	progress int
	reason   string
}

// NewLifecycle creates a lifecycle in UNLOADED state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateUnloaded}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Progress returns the loading percentage (0-100).
func (l *Lifecycle) Progress() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.progress
}

// Reason returns the failure reason, empty unless FAILED.
func (l *Lifecycle) Reason() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reason
}

// IsReady returns true once the model is loaded.
func (l *Lifecycle) IsReady() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateReady
}

// BeginLoad transitions UNLOADED or FAILED to LOADING.
func (l *Lifecycle) BeginLoad() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateUnloaded, StateFailed:
		l.state = StateLoading
		l.progress = 0
		l.reason = ""
		return nil
	case StateLoading:
		return ErrAlreadyLoading
	case StateReady:
		return ErrAlreadyReady
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// SetProgress records loading progress, clamped to [0,100] and never
// moving backwards. Ignored outside LOADING.
func (l *Lifecycle) SetProgress(pct int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateLoading {
		return
	}
	if pct > 100 {
		pct = 100
	}
	if pct > l.progress {
		l.progress = pct
	}
}

// MarkReady transitions LOADING to READY.
func (l *Lifecycle) MarkReady() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateLoading {
		return ErrNotLoading
	}
	l.state = StateReady
	l.progress = 100
	return nil
}

// MarkFailed transitions LOADING to FAILED and records the reason.
func (l *Lifecycle) MarkFailed(reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateLoading {
		return ErrNotLoading
	}
	l.state = StateFailed
	l.reason = reason
	return nil
}
