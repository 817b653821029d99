package statemachine

import (
	"fmt"
	"sync"
)

// SimpleStateMachine provides a thread-safe in-memory state machine.
// Transitions are stored as a nested map [fromState][event] -> toState
// for O(1) lookups. Each from/event pair resolves to exactly one target.
type SimpleStateMachine struct {
	initialState State
	currentState State
	transitions  map[string]map[string]Transition
	mu           sync.RWMutex
}

func newSimpleStateMachine(initialState State) *SimpleStateMachine {
	return &SimpleStateMachine{
		initialState: initialState,
		currentState: initialState,
		transitions:  make(map[string]map[string]Transition),
	}
}

func (sm *SimpleStateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

func (sm *SimpleStateMachine) AddTransition(from, to State, event Event) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	fromName := from.Name()
	eventName := event.Name()

	if _, ok := sm.transitions[fromName]; !ok {
		sm.transitions[fromName] = make(map[string]Transition)
	}
	if _, ok := sm.transitions[fromName][eventName]; ok {
		return fmt.Errorf("duplicate transition from '%s' on '%s': %w", fromName, eventName, ErrInvalidTransition)
	}

	sm.transitions[fromName][eventName] = Transition{From: from, To: to, Event: event}
	return nil
}

// Fire attempts to transition using the given event. On success the machine
// moves to the transition's target state.
func (sm *SimpleStateMachine) Fire(event Event) error {
	if event == nil {
		return ErrInvalidEvent
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	t, ok := sm.transitions[sm.currentState.Name()][event.Name()]
	if !ok {
		return fmt.Errorf("from state '%s' on event '%s': %w", sm.currentState.Name(), event.Name(), ErrNoTransition)
	}

	sm.currentState = t.To
	return nil
}

// CanFire reports whether the event would transition from the current state.
func (sm *SimpleStateMachine) CanFire(event Event) bool {
	if event == nil {
		return false
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	_, ok := sm.transitions[sm.currentState.Name()][event.Name()]
	return ok
}

// Reset returns the machine to its initial state. Transitions are preserved.
func (sm *SimpleStateMachine) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.currentState = sm.initialState
}
