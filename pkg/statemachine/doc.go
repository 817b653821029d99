// Package statemachine provides a small, thread-safe finite state machine
// used to encode lifecycle rules such as subscription status transitions.
//
// The package revolves around two minimal interfaces, State and Event, with
// ready-made StringState and StringEvent helpers for the common case where
// states and events are plain identifiers. Transitions are deterministic:
// each from-state/event pair resolves to exactly one target state.
//
// # Usage
//
//	draft := statemachine.StringState("trial")
//	active := statemachine.StringState("active")
//	expired := statemachine.StringState("expired")
//
//	sm := statemachine.MustNew(draft,
//	    statemachine.WithTransition(draft, active, statemachine.StringEvent("activate")),
//	    statemachine.WithTransition(active, expired, statemachine.StringEvent("expire")),
//	)
//
//	if sm.CanFire(statemachine.StringEvent("activate")) {
//	    _ = sm.Fire(statemachine.StringEvent("activate"))
//	}
//
// Fire returns ErrNoTransition when no transition is defined for the current
// state and event; CanFire is the non-mutating probe for the same check.
package statemachine
