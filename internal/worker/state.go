// Package worker watches a drop directory for caption job files and runs
// each one through the timing pipeline.
package worker

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a job.
type State int

const (
	// StateQueued - Job file discovered, not yet processing.
	StateQueued State = iota
	// StateResolving - Timeline resolution in progress.
	StateResolving
	// StateExported - Timeline and captions written, job complete.
	StateExported
	// StateFailed - Job could not be processed. Terminal.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "QUEUED"
	case StateResolving:
		return "RESOLVING"
	case StateExported:
		return "EXPORTED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (EXPORTED or FAILED).
func (s State) IsTerminal() bool {
	return s == StateExported || s == StateFailed
}

// Errors for invalid state transitions.
var (
	ErrJobNotQueued  = errors.New("job is not queued")
	ErrJobNotRunning = errors.New("job is not resolving")
	ErrJobFinished   = errors.New("job already finished")
)

// Lifecycle manages the state machine for a single job.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	QUEUED → RESOLVING → EXPORTED
//	  │          │
//	  └──────────┴── Fail() ──→ FAILED
//
// Rules:
//   - QUEUED: Begin() starts resolution (once)
//   - RESOLVING: MarkExported() completes the job (once)
//   - FAILED can be entered from any non-terminal state, exactly once
//   - Terminal states reject all further transitions
type Lifecycle struct {
	mu    sync.RWMutex
	jobID string
	state State
}

// NewLifecycle creates a new job lifecycle in QUEUED state.
func NewLifecycle(jobID string) *Lifecycle {
	return &Lifecycle{
		jobID: jobID,
		state: StateQueued,
	}
}

// JobID returns the job ID.
func (l *Lifecycle) JobID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.jobID
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsTerminal returns true if the job is in a terminal state.
func (l *Lifecycle) IsTerminal() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsTerminal()
}

// Begin transitions QUEUED → RESOLVING.
func (l *Lifecycle) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateQueued:
		l.state = StateResolving
		return nil
	case StateExported, StateFailed:
		return ErrJobFinished
	default:
		return ErrJobNotQueued
	}
}

// MarkExported transitions RESOLVING → EXPORTED.
func (l *Lifecycle) MarkExported() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateResolving:
		l.state = StateExported
		return nil
	case StateExported, StateFailed:
		return ErrJobFinished
	default:
		return ErrJobNotRunning
	}
}

// Fail transitions the job to FAILED state from any non-terminal state.
// Returns true if the job was failed, false if already in a terminal state.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateFailed
	return true
}
