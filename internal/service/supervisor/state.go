package supervisor

import "fmt"

// State represents the lifecycle state of a supervised recognition run.
type State int

const (
	// StateIdle - never started.
	StateIdle State = iota
	// StateListening - an engine session is live.
	StateListening
	// StateRestartPending - the engine ended too soon and a debounced restart is scheduled.
	StateRestartPending
	// StateStopped - stopped by the caller or by a fatal engine error.
	StateStopped
	// StateFaulted - halted by a restart loop. The caller must not retry automatically.
	StateFaulted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	case StateRestartPending:
		return "RESTART_PENDING"
	case StateStopped:
		return "STOPPED"
	case StateFaulted:
		return "FAULTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsActive returns true while the caller intends to keep listening.
func (s State) IsActive() bool {
	return s == StateListening || s == StateRestartPending
}

// IsTerminal returns true if the run has ended (STOPPED or FAULTED).
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFaulted
}
