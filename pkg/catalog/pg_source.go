package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pgSource loads plans from the plans table.
type pgSource struct {
	pool *pgxpool.Pool
}

// NewPGSource returns a Source backed by Postgres. The plan set is
// administered out-of-band; this source only reads it.
func NewPGSource(pool *pgxpool.Pool) Source {
	return &pgSource{pool: pool}
}

const loadPlansQuery = `
SELECT id, name, tier, monthly_price, yearly_price, currency, features, trial_days, public
FROM plans`

// Load reads all plans. Feature values are stored as JSONB with boolean or
// integer values; integers use -1 for unlimited.
func (s *pgSource) Load(ctx context.Context) (map[string]Plan, error) {
	rows, err := s.pool.Query(ctx, loadPlansQuery)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	defer rows.Close()

	plans := make(map[string]Plan)
	for rows.Next() {
		var (
			plan        Plan
			tier        string
			currency    string
			featuresRaw []byte
		)
		if err := rows.Scan(&plan.ID, &plan.Name, &tier,
			&plan.MonthlyPrice.Amount, &plan.YearlyPrice.Amount,
			&currency, &featuresRaw, &plan.TrialDays, &plan.Public); err != nil {
			return nil, errors.Join(ErrFailedToLoadPlans, err)
		}

		plan.Tier = Tier(tier)
		plan.MonthlyPrice.Currency = currency
		plan.YearlyPrice.Currency = currency

		features, err := decodeFeaturesJSON(plan.ID, featuresRaw)
		if err != nil {
			return nil, err
		}
		plan.Features = features

		plans[plan.ID] = plan
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	return plans, nil
}

func decodeFeaturesJSON(planID string, raw []byte) (FeatureMap, error) {
	if len(raw) == 0 {
		return FeatureMap{}, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.Join(ErrInvalidPlanConfiguration,
			fmt.Errorf("plan %s: invalid features JSON: %w", planID, err))
	}

	features := make(FeatureMap, len(decoded))
	for key, val := range decoded {
		switch v := val.(type) {
		case bool:
			features[Feature(key)] = BoolValue(v)
		case float64:
			features[Feature(key)] = LimitValue(int64(v))
		default:
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s: feature %q has unsupported type %T", planID, key, val))
		}
	}
	return features, nil
}
