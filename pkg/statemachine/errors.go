package statemachine

import "errors"

var (
	// ErrInvalidTransition indicates a transition with a nil state or event.
	ErrInvalidTransition = errors.New("invalid transition: from, to, or event cannot be nil")
	// ErrInvalidEvent indicates Fire or CanFire was called with a nil event.
	ErrInvalidEvent = errors.New("invalid event: event cannot be nil")
	// ErrNoTransition indicates no transition is defined for the current
	// state and the given event.
	ErrNoTransition = errors.New("no transition available")
)
