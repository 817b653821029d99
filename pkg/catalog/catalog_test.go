package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
)

func testPlans() map[string]catalog.Plan {
	return map[string]catalog.Plan{
		"plan_basic": {
			ID:           "plan_basic",
			Name:         "Basic",
			Tier:         catalog.TierBasic,
			MonthlyPrice: catalog.Money{Amount: 900, Currency: "USD"},
			YearlyPrice:  catalog.Money{Amount: 9000, Currency: "USD"},
			Features: catalog.FeatureMap{
				catalog.FeatureMaxExams: catalog.LimitValue(10),
			},
			TrialDays: 7,
			Public:    true,
		},
		"plan_advanced": {
			ID:           "plan_advanced",
			Name:         "Advanced",
			Tier:         catalog.TierAdvanced,
			MonthlyPrice: catalog.Money{Amount: 1900, Currency: "USD"},
			YearlyPrice:  catalog.Money{Amount: 19000, Currency: "USD"},
			Features: catalog.FeatureMap{
				catalog.FeatureMaxExams:   catalog.LimitValue(50),
				catalog.FeatureAIAnalysis: catalog.BoolValue(true),
			},
			Public: true,
		},
		"plan_professional": {
			ID:           "plan_professional",
			Name:         "Professional",
			Tier:         catalog.TierProfessional,
			MonthlyPrice: catalog.Money{Amount: 4900, Currency: "USD"},
			YearlyPrice:  catalog.Money{Amount: 49000, Currency: "USD"},
			Features: catalog.FeatureMap{
				catalog.FeatureMaxExams:   catalog.UnlimitedValue(),
				catalog.FeatureAIAnalysis: catalog.BoolValue(true),
			},
			Public: true,
		},
	}
}

type failingSource struct {
	err error
}

func (s *failingSource) Load(ctx context.Context) (map[string]catalog.Plan, error) {
	return nil, s.err
}

// flakySource serves a good plan set once, then fails.
type flakySource struct {
	plans  map[string]catalog.Plan
	loads  int
	failAt int
}

func (s *flakySource) Load(ctx context.Context) (map[string]catalog.Plan, error) {
	s.loads++
	if s.loads >= s.failAt {
		return nil, errors.New("source unavailable")
	}
	out := make(map[string]catalog.Plan, len(s.plans))
	for id, p := range s.plans {
		out[id] = p
	}
	return out, nil
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil source panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			_, _ = catalog.New(context.Background(), nil)
		})
	})

	t.Run("initial load failure", func(t *testing.T) {
		t.Parallel()

		src := &failingSource{err: errors.New("boom")}
		_, err := catalog.New(context.Background(), src)
		require.ErrorIs(t, err, catalog.ErrFailedToLoadPlans)
	})

	t.Run("invalid plan set rejected", func(t *testing.T) {
		t.Parallel()

		plans := testPlans()
		bad := plans["plan_basic"]
		bad.Tier = catalog.Tier("made_up")
		plans["plan_basic"] = bad

		_, err := catalog.New(context.Background(), catalog.NewInMemSource(plans))
		require.ErrorIs(t, err, catalog.ErrInvalidPlanConfiguration)
	})
}

func TestCatalog_Plan(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New(context.Background(), catalog.NewInMemSource(testPlans()))
	require.NoError(t, err)

	plan, err := cat.Plan(context.Background(), "plan_advanced")
	require.NoError(t, err)
	assert.Equal(t, "plan_advanced", plan.ID)
	assert.Equal(t, catalog.TierAdvanced, plan.Tier)

	_, err = cat.Plan(context.Background(), "plan_missing")
	require.ErrorIs(t, err, catalog.ErrPlanNotFound)
}

func TestCatalog_PlanByTier(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New(context.Background(), catalog.NewInMemSource(testPlans()))
	require.NoError(t, err)

	plan, err := cat.PlanByTier(context.Background(), catalog.TierProfessional)
	require.NoError(t, err)
	assert.Equal(t, "plan_professional", plan.ID)

	_, err = cat.PlanByTier(context.Background(), catalog.Tier("made_up"))
	require.ErrorIs(t, err, catalog.ErrPlanNotFound)
}

func TestCatalog_List_Ordering(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New(context.Background(), catalog.NewInMemSource(testPlans()))
	require.NoError(t, err)

	plans, err := cat.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 3)

	assert.Equal(t, "plan_basic", plans[0].ID)
	assert.Equal(t, "plan_advanced", plans[1].ID)
	assert.Equal(t, "plan_professional", plans[2].ID)
}

func TestCatalog_PlanIsSnapshot(t *testing.T) {
	t.Parallel()

	cat, err := catalog.New(context.Background(), catalog.NewInMemSource(testPlans()))
	require.NoError(t, err)

	plan, err := cat.Plan(context.Background(), "plan_basic")
	require.NoError(t, err)
	plan.Features[catalog.FeatureAIAnalysis] = catalog.BoolValue(true)

	again, err := cat.Plan(context.Background(), "plan_basic")
	require.NoError(t, err)
	assert.True(t, again.Feature(catalog.FeatureAIAnalysis).Absent())
}

func TestCatalog_TTLReload(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &flakySource{plans: testPlans(), failAt: 100}

	cat, err := catalog.New(context.Background(), src,
		catalog.WithTTL(time.Minute),
		catalog.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	require.Equal(t, 1, src.loads)

	// Inside the TTL the source is not consulted again.
	_, err = cat.Plan(context.Background(), "plan_basic")
	require.NoError(t, err)
	assert.Equal(t, 1, src.loads)

	// Past the TTL the next read triggers a reload.
	now = now.Add(2 * time.Minute)
	_, err = cat.Plan(context.Background(), "plan_basic")
	require.NoError(t, err)
	assert.Equal(t, 2, src.loads)
}

func TestCatalog_StaleSetSurvivesReloadFailure(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &flakySource{plans: testPlans(), failAt: 2}

	cat, err := catalog.New(context.Background(), src,
		catalog.WithTTL(time.Minute),
		catalog.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	// Reload fails but the last good plan set keeps serving.
	plan, err := cat.Plan(context.Background(), "plan_basic")
	require.NoError(t, err)
	assert.Equal(t, "plan_basic", plan.ID)
	assert.GreaterOrEqual(t, src.loads, 2)
}

func TestPlan_Price(t *testing.T) {
	t.Parallel()

	plan := testPlans()["plan_basic"]
	assert.EqualValues(t, 900, plan.Price(catalog.CycleMonthly).Amount)
	assert.EqualValues(t, 9000, plan.Price(catalog.CycleYearly).Amount)
}

func TestCycle_PeriodEnd(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)

	// AddDate normalization: Jan 31 + 1 month = Mar 3 (non-leap year rules apply per Go).
	assert.Equal(t, start.AddDate(0, 1, 0), catalog.CycleMonthly.PeriodEnd(start))
	assert.Equal(t, start.AddDate(1, 0, 0), catalog.CycleYearly.PeriodEnd(start))

	assert.True(t, catalog.CycleMonthly.Valid())
	assert.True(t, catalog.CycleYearly.Valid())
	assert.False(t, catalog.Cycle("weekly").Valid())
}
