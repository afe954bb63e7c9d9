package engine

import "context"

// SessionState tracks where the async path currently is.
//
// States:
//   - Idle: nothing pending or in flight.
//   - Debouncing: a keystroke arrived; the engine is waiting out the
//     debounce window before starting provider work.
//   - InFlight: provider fan-out for the latest keystroke is running.
type SessionState int

const (
	// StateIdle means nothing is pending or in flight.
	StateIdle SessionState = iota
	// StateDebouncing means a search is waiting out the debounce window.
	StateDebouncing
	// StateInFlight means provider work is running.
	StateInFlight
)

// String returns the human-readable name of the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDebouncing:
		return "DEBOUNCING"
	case StateInFlight:
		return "IN_FLIGHT"
	default:
		return "UNKNOWN"
	}
}

// session is the ephemeral per-keystroke state: the query it serves,
// its generation for stale detection, and the cancellation lever the
// next keystroke pulls.
type session struct {
	query  string
	gen    uint64
	cancel context.CancelFunc
}
