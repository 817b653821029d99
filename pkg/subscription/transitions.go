package subscription

import (
	"github.com/dmitrymomot/billingkit/pkg/statemachine"
)

// Status-change events. Each event has exactly one target state, so a
// status change maps to a single Fire attempt.
var (
	eventActivate = statemachine.StringEvent("activate")
	eventCancel   = statemachine.StringEvent("cancel")
	eventExpire   = statemachine.StringEvent("expire")
)

var statusEvents = map[Status]statemachine.Event{
	StatusActive:    eventActivate,
	StatusCancelled: eventCancel,
	StatusExpired:   eventExpire,
}

// newStatusMachine builds the subscription lifecycle machine anchored at
// the given status. Trial converts to active on payment; trial and active
// can cancel; anything not yet expired can expire.
func newStatusMachine(current Status) statemachine.StateMachine {
	trial := statemachine.StringState(StatusTrial)
	active := statemachine.StringState(StatusActive)
	cancelled := statemachine.StringState(StatusCancelled)
	expired := statemachine.StringState(StatusExpired)

	return statemachine.MustNew(statemachine.StringState(current),
		statemachine.WithTransition(trial, active, eventActivate),
		statemachine.WithTransition(trial, cancelled, eventCancel),
		statemachine.WithTransition(trial, expired, eventExpire),
		statemachine.WithTransition(active, cancelled, eventCancel),
		statemachine.WithTransition(active, expired, eventExpire),
		statemachine.WithTransition(cancelled, expired, eventExpire),
	)
}

// CanTransition reports whether a status change is allowed by the
// subscription lifecycle. Writing the same status back is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}

	event, ok := statusEvents[to]
	if !ok {
		// No event re-enters trial: a subscription never becomes a trial
		// again once it left that state.
		return false
	}

	return newStatusMachine(from).CanFire(event)
}
