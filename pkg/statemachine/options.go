package statemachine

import "fmt"

// Option configures a state machine during construction.
type Option func(*SimpleStateMachine) error

// New creates a new state machine with the given initial state and options.
func New(initialState State, opts ...Option) (StateMachine, error) {
	if initialState == nil {
		return nil, fmt.Errorf("initial state cannot be nil")
	}

	sm := newSimpleStateMachine(initialState)

	for _, opt := range opts {
		if err := opt(sm); err != nil {
			return nil, err
		}
	}

	return sm, nil
}

// MustNew creates a new state machine with the given initial state and
// options. Panics if any option fails to apply; transition tables are
// static configuration, so a bad table is a programming error.
func MustNew(initialState State, opts ...Option) StateMachine {
	sm, err := New(initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return sm
}

// WithTransition adds a single transition to the state machine.
func WithTransition(from, to State, event Event) Option {
	return func(sm *SimpleStateMachine) error {
		return sm.AddTransition(from, to, event)
	}
}

// WithTransitions adds multiple transitions to the state machine at once.
func WithTransitions(transitions []Transition) Option {
	return func(sm *SimpleStateMachine) error {
		for i, t := range transitions {
			if err := sm.AddTransition(t.From, t.To, t.Event); err != nil {
				return fmt.Errorf("failed to add transition[%d]: %w", i, err)
			}
		}
		return nil
	}
}
