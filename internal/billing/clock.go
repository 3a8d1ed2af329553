package billing

import "time"

// ClockState is the state of a session's billing clock.  The clock
// moves NOT_STARTED → RUNNING → PAUSED → RUNNING → … until the session
// is checked out; there is no explicit CLOSED state because a checked
// out session row no longer exists.
type ClockState int

const (
	ClockNotStarted ClockState = iota
	ClockRunning
	ClockPaused
)

// String returns the wire name of the state.
func (s ClockState) String() string {
	switch s {
	case ClockRunning:
		return "RUNNING"
	case ClockPaused:
		return "PAUSED"
	default:
		return "NOT_STARTED"
	}
}

// StateOf derives the clock state from the session's two clock
// columns: a nil ChargeStartedAt means billing never began, a non-nil
// ChargePausedAt means it is suspended.
func StateOf(chargeStartedAt, chargePausedAt *time.Time) ClockState {
	if chargeStartedAt == nil {
		return ClockNotStarted
	}
	if chargePausedAt != nil {
		return ClockPaused
	}
	return ClockRunning
}
