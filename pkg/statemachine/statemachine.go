package statemachine

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Transition defines a state change triggered by an event.
type Transition struct {
	From  State
	To    State
	Event Event
}

// StateMachine defines the core finite state machine operations.
type StateMachine interface {
	Current() State
	AddTransition(from, to State, event Event) error
	Fire(event Event) error
	CanFire(event Event) bool
	Reset()
}

// StringState provides a simple string-based state implementation.
type StringState string

func (s StringState) Name() string {
	return string(s)
}

// StringEvent provides a simple string-based event implementation.
type StringEvent string

func (e StringEvent) Name() string {
	return string(e)
}
