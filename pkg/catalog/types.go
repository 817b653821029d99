package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $10.99 USD would be Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64  // Amount in smallest currency unit (cents for USD)
	Currency string // ISO 4217 currency code
}

// Decimal returns the amount in major units (e.g. 1099 cents -> 10.99).
// All proration math runs on decimals; Money carries only final, rounded
// amounts.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -2)
}

// IsZero returns true when the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// Cycle represents the billing frequency of a subscription.
type Cycle string

const (
	CycleMonthly Cycle = "monthly"
	CycleYearly  Cycle = "yearly"
)

// Valid reports whether the cycle is one of the known billing cycles.
func (c Cycle) Valid() bool {
	return c == CycleMonthly || c == CycleYearly
}

// PeriodEnd returns the end of a full billing period starting at start.
// Calendar arithmetic follows time.AddDate semantics in UTC.
func (c Cycle) PeriodEnd(start time.Time) time.Time {
	start = start.UTC()
	if c == CycleYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// Tier identifies a plan's level in the fixed upgrade order.
type Tier string

const (
	TierBasic        Tier = "basic"
	TierAdvanced     Tier = "advanced"
	TierProfessional Tier = "professional"
)

var tierRanks = map[Tier]int{
	TierBasic:        1,
	TierAdvanced:     2,
	TierProfessional: 3,
}

// Rank returns the tier's position in the upgrade order.
// Unknown tiers rank below every known tier.
func (t Tier) Rank() int {
	return tierRanks[t]
}

// Valid reports whether the tier is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}
