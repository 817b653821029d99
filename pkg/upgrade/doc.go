// Package upgrade applies validated plan and billing-cycle changes.
//
// A commit never trusts a previously previewed quote: it reprices against
// fresh state, then appends the history entry and mutates the subscription
// to a new full period starting now in one atomic compound write through
// the store. Concurrent commits for one account are serialized by the
// subscription's version: the loser gets ErrConcurrencyConflict and must
// retry against fresh state.
//
// Retrying a commit is safe when the caller supplies a request ID: a
// replayed commit with the same account, target, and request ID returns
// the original history entry instead of charging again.
//
// A downgrade is never applied immediately. ScheduleDowngrade records the
// intent on the subscription; the period-rollover process applies it when
// the current period ends.
package upgrade
