package catalog

import (
	"errors"
	"fmt"
)

// Plan describes a subscription plan: identity, tier, per-cycle pricing,
// and the typed feature map. Plans are effectively immutable once a live
// subscription references them; price changes apply to new or renewed
// subscriptions only.
type Plan struct {
	ID           string
	Name         string // human-readable display name
	Tier         Tier
	MonthlyPrice Money
	YearlyPrice  Money
	Features     FeatureMap
	TrialDays    int  // 0 disables trial
	Public       bool // available for self-service signup
}

// Price returns the plan price for the given billing cycle.
func (p Plan) Price(c Cycle) Money {
	if c == CycleYearly {
		return p.YearlyPrice
	}
	return p.MonthlyPrice
}

// Feature returns the typed value for a feature key. Unknown keys return
// an absent value.
func (p Plan) Feature(key Feature) Value {
	return p.Features.Get(key)
}

// clone returns a snapshot safe to hand to callers.
func (p Plan) clone() Plan {
	p.Features = p.Features.Clone()
	return p
}

// validatePlans ensures plan configurations are internally consistent.
// Catches configuration errors at load time to prevent runtime surprises.
func validatePlans(plans map[string]Plan) error {
	for planID, plan := range plans {
		if plan.ID != planID {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", planID, plan.ID))
		}

		if !plan.Tier.Valid() {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has unknown tier %q", planID, plan.Tier))
		}

		if plan.MonthlyPrice.Amount < 0 || plan.YearlyPrice.Amount < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative price", planID))
		}

		if plan.TrialDays < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative trial days: %d", planID, plan.TrialDays))
		}
	}
	return nil
}
