package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
)

func writePlanFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_Load(t *testing.T) {
	t.Parallel()

	path := writePlanFile(t, `
currency: USD
plans:
  - id: plan_basic
    name: Basic
    tier: basic
    monthly_price: 900
    yearly_price: 9000
    trial_days: 7
    public: true
    features:
      max_exams: 10
      ai_analysis: false
  - id: plan_professional
    name: Professional
    tier: professional
    monthly_price: 4900
    yearly_price: 49000
    public: true
    features:
      max_exams: -1
      ai_analysis: true
`)

	plans, err := catalog.NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)

	basic := plans["plan_basic"]
	assert.Equal(t, catalog.TierBasic, basic.Tier)
	assert.Equal(t, catalog.Money{Amount: 900, Currency: "USD"}, basic.MonthlyPrice)
	assert.Equal(t, 7, basic.TrialDays)

	n, ok := basic.Feature(catalog.FeatureMaxExams).Limit()
	require.True(t, ok)
	assert.EqualValues(t, 10, n)
	assert.False(t, basic.Feature(catalog.FeatureAIAnalysis).Enabled())

	pro := plans["plan_professional"]
	assert.True(t, pro.Feature(catalog.FeatureMaxExams).IsUnlimited())
	assert.True(t, pro.Feature(catalog.FeatureAIAnalysis).Enabled())
}

func TestFileSource_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.NewFileSource(filepath.Join(t.TempDir(), "nope.yaml")).Load(context.Background())
		require.ErrorIs(t, err, catalog.ErrFailedToLoadPlans)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := writePlanFile(t, "plans: [broken")
		_, err := catalog.NewFileSource(path).Load(context.Background())
		require.ErrorIs(t, err, catalog.ErrFailedToLoadPlans)
	})

	t.Run("missing currency", func(t *testing.T) {
		t.Parallel()

		path := writePlanFile(t, `
plans:
  - id: plan_basic
    tier: basic
`)
		_, err := catalog.NewFileSource(path).Load(context.Background())
		require.ErrorIs(t, err, catalog.ErrInvalidPlanConfiguration)
	})

	t.Run("unsupported feature type", func(t *testing.T) {
		t.Parallel()

		path := writePlanFile(t, `
currency: USD
plans:
  - id: plan_basic
    tier: basic
    features:
      max_exams: "ten"
`)
		_, err := catalog.NewFileSource(path).Load(context.Background())
		require.ErrorIs(t, err, catalog.ErrInvalidPlanConfiguration)
	})
}
