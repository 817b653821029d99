package proration

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/entitlement"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

var (
	ErrUnknownPlan          = errors.New("proration: unknown plan")
	ErrUnknownCycle         = errors.New("proration: unknown billing cycle")
	ErrNoActiveSubscription = errors.New("proration: no active subscription to upgrade")
)

// Quote is the computed cost of a plan change. It is never persisted: a
// commit always recomputes it against fresh state.
type Quote struct {
	CurrentPlanID string
	TargetPlanID  string
	CurrentPrice  catalog.Money
	TargetPrice   catalog.Money

	TotalDays     int
	DaysUsed      int
	DaysRemaining int

	CreditAmount    catalog.Money
	AmountToPay     catalog.Money
	DiscountPercent decimal.Decimal // rounded to 1 decimal place
}

// Calculator prices plan changes against the governing subscription.
type Calculator struct {
	ent *entitlement.Resolver
	cat *catalog.Catalog
}

// NewCalculator creates a Calculator. Panics if ent or cat is nil to fail
// fast during initialization.
func NewCalculator(ent *entitlement.Resolver, cat *catalog.Catalog) *Calculator {
	if ent == nil {
		panic("proration: entitlement resolver is required")
	}
	if cat == nil {
		panic("proration: catalog is required")
	}
	return &Calculator{ent: ent, cat: cat}
}

// Quote computes the proration for moving the account to the target plan
// and cycle. It requires a live subscription to upgrade from; a free-tier
// account is declined with ErrNoActiveSubscription.
//
// The quote is a pure function of stored state plus the resolution
// instant: calling it twice with no intervening writes returns identical
// results.
func (c *Calculator) Quote(ctx context.Context, accountID uuid.UUID, targetPlanID string, targetCycle catalog.Cycle) (Quote, error) {
	if !targetCycle.Valid() {
		return Quote{}, ErrUnknownCycle
	}

	targetPlan, err := c.cat.Plan(ctx, targetPlanID)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			return Quote{}, ErrUnknownPlan
		}
		return Quote{}, err
	}
	targetPrice := targetPlan.Price(targetCycle)

	gov, err := c.ent.Governing(ctx, accountID)
	if err != nil {
		return Quote{}, err
	}

	quote := Quote{
		TargetPlanID: targetPlanID,
		TargetPrice:  targetPrice,
		AmountToPay:  targetPrice,
	}

	if gov.None() {
		return Quote{}, ErrNoActiveSubscription
	}

	sub := gov.Sub
	quote.CurrentPlanID = sub.PlanID
	quote.CurrentPrice = gov.Plan.Price(sub.Cycle)

	if sub.Status == subscription.StatusTrial {
		// Trial time is unpaid and earns no credit: converting to a
		// paid plan costs the full target price.
		return quote, nil
	}

	totalDays := ceilDays(sub.CurrentPeriodEnd.Sub(sub.CurrentPeriodStart))
	if totalDays == 0 {
		// Periods are validated start < end, so a whole period is at
		// least one day; an empty period yields no credit.
		return quote, nil
	}
	daysUsed := clamp(ceilDays(gov.Now.Sub(sub.CurrentPeriodStart)), 0, totalDays)
	daysRemaining := totalDays - daysUsed

	quote.TotalDays = totalDays
	quote.DaysUsed = daysUsed
	quote.DaysRemaining = daysRemaining

	// credit = current_price * days_remaining / total_days, computed on
	// decimals and rounded only at the output boundary.
	credit := quote.CurrentPrice.Decimal().
		Mul(decimal.NewFromInt(int64(daysRemaining))).
		Div(decimal.NewFromInt(int64(totalDays)))

	target := targetPrice.Decimal()

	pay := target.Sub(credit)
	if pay.IsNegative() {
		pay = decimal.Zero
	}

	discount := decimal.Zero
	if !target.IsZero() {
		discount = credit.Div(target).Mul(decimal.NewFromInt(100))
	}

	quote.CreditAmount = roundToMoney(credit, targetPrice.Currency)
	quote.AmountToPay = roundToMoney(pay, targetPrice.Currency)
	quote.DiscountPercent = discount.Round(1)

	return quote, nil
}

// ceilDays converts a duration to whole days, rounding any started day up.
func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}

// roundToMoney rounds a decimal amount to 2 places and converts it to
// minor units. The single place monetary rounding happens.
func roundToMoney(d decimal.Decimal, currency string) catalog.Money {
	return catalog.Money{
		Amount:   d.Round(2).Shift(2).IntPart(),
		Currency: currency,
	}
}
