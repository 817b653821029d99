package upgrade

import "errors"

var (
	ErrNoActiveSubscription = errors.New("upgrade: no active subscription to upgrade")
	ErrUnknownPlan          = errors.New("upgrade: unknown plan")
	ErrInvalidTransition    = errors.New("upgrade: invalid transition")
	// ErrConcurrencyConflict means the commit lost a race against another
	// write to the same subscription. Retryable against fresh state.
	ErrConcurrencyConflict = errors.New("upgrade: concurrent modification, retry")
)
