// Package conversation sequences the dispute interview. A Session is a plain
// value: handlers take one in and hand a new one back, and every state change
// goes through the transition table below.
package conversation

import (
	"errors"
	"fmt"
)

// State is one of the closed set of interview states.
type State string

const (
	StateSelection   State = "selection"
	StateCollecting  State = "collecting"
	StateConfirmScan State = "confirm_scan"
	StateReview      State = "review"
	StateComplete    State = "complete"
	StateClosed      State = "closed"
)

// Event drives a transition.
type Event string

const (
	EventChoose           Event = "choose"
	EventAnswer           Event = "answer"
	EventFinish           Event = "finish"
	EventScan             Event = "scan"
	EventAcceptScan       Event = "accept_scan"
	EventRejectScan       Event = "reject_scan"
	EventApprove          Event = "approve"
	EventRevise           Event = "revise"
	EventGenerationFailed Event = "generation_failed"
	EventRestart          Event = "restart"
	EventQuit             Event = "quit"
)

// ErrInvalidTransition is returned for an event the current state does not accept.
var ErrInvalidTransition = errors.New("invalid conversation transition")

var transitions = map[State]map[Event]State{
	StateSelection: {
		EventChoose:  StateCollecting,
		EventRestart: StateSelection,
	},
	StateCollecting: {
		EventAnswer:  StateCollecting,
		EventFinish:  StateReview,
		EventScan:    StateConfirmScan,
		EventRestart: StateSelection,
	},
	StateConfirmScan: {
		EventAcceptScan: StateCollecting,
		EventRejectScan: StateCollecting,
		EventRestart:    StateSelection,
	},
	StateReview: {
		EventApprove: StateComplete,
		EventRevise:  StateCollecting,
		EventRestart: StateSelection,
	},
	StateComplete: {
		EventGenerationFailed: StateReview,
		EventRestart:          StateSelection,
		EventQuit:             StateClosed,
	},
	StateClosed: {
		EventRestart: StateSelection,
	},
}

// Next looks up the target of ev from s.
func Next(s State, ev Event) (State, error) {
	if to, ok := transitions[s][ev]; ok {
		return to, nil
	}
	return s, fmt.Errorf("%w: %s on %q", ErrInvalidTransition, s, ev)
}

// Valid reports whether s is a declared state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}
