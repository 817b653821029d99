// Package usage counts billable events against the governing billing
// period and enforces per-period quotas.
//
// Usage events are an append-only log written by feature modules. The
// counter reads them back filtered to the governing subscription's
// half-open period [start, end) and compares the count with the plan's
// numeric limit for the category. An unlimited limit short-circuits every
// check.
//
// Advisory reads (Current, Remaining, CanRecordMore) may be served from an
// eventually consistent source. The gated write path (Record) re-counts
// against the source immediately before appending so concurrent writers
// cannot overshoot the quota.
package usage
