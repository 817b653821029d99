// Package proration computes the pro-rata credit and charge for a plan or
// billing-cycle change in the middle of a billing period.
//
// The credit is linear in time: unused days of the current plan, valued at
// the current price, applied against the target price. No compounding, no
// tax.
//
// All monetary arithmetic runs on decimals and rounds exactly once, at the
// output boundary: amounts to 2 decimal places, the discount percentage to
// 1. Day counts are whole UTC calendar days; a started day counts as used.
// Billing-period boundaries are stored in UTC, so day arithmetic is done
// in UTC as well.
package proration
