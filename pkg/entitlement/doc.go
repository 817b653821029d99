// Package entitlement answers feature and quota questions for an account.
//
// Entitlement can come from more than one authority: a personal
// subscription, an organization grant, or nothing (the free tier). Each
// authority is a Provider returning an optional subscription-shaped value;
// the resolver walks the providers in priority order and the first hit
// becomes the governing subscription. Adding a new authority (say a
// promotional grant) is a new Provider in the chain, not a special case.
//
// One resolution captures a single timestamp and reuses it for every
// time-bounded check, so a subscription cannot flip state halfway through
// answering one question.
//
// Feature checks never fail for "no access": they return false. Storage
// errors also answer false, since a false deny is retryable and a false
// grant leaks revenue.
package entitlement
