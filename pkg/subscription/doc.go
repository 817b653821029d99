// Package subscription holds the subscription record and its persistence
// contract.
//
// An account has at most one live subscription (status trial or active) at
// any instant; every Store implementation enforces that invariant on write,
// not just on read. Billing periods are half-open intervals [start, end) in
// UTC.
//
// Compound writes (the upgrade commit, the scheduled downgrade) are atomic
// and guarded by an optimistic version check: a writer that lost a race
// gets ErrVersionConflict and must retry against fresh state. Status
// changes are validated against a small state machine; an invalid change
// such as reviving an expired subscription is rejected with
// ErrInvalidSubscriptionState.
package subscription
