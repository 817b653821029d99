package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
)

func TestValue_Enabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value catalog.Value
		want  bool
	}{
		{name: "absent denies", value: catalog.Value{}, want: false},
		{name: "bool true", value: catalog.BoolValue(true), want: true},
		{name: "bool false", value: catalog.BoolValue(false), want: false},
		{name: "unlimited grants", value: catalog.UnlimitedValue(), want: true},
		{name: "positive limit grants", value: catalog.LimitValue(10), want: true},
		{name: "zero limit denies", value: catalog.LimitValue(0), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.value.Enabled())
		})
	}
}

func TestValue_Limit(t *testing.T) {
	t.Parallel()

	n, ok := catalog.LimitValue(25).Limit()
	assert.True(t, ok)
	assert.EqualValues(t, 25, n)

	// Unlimited is not a numeric limit; callers must check IsUnlimited.
	n, ok = catalog.UnlimitedValue().Limit()
	assert.False(t, ok)
	assert.Zero(t, n)

	_, ok = catalog.BoolValue(true).Limit()
	assert.False(t, ok)

	_, ok = catalog.Value{}.Limit()
	assert.False(t, ok)
}

func TestLimitValue_NormalizesSentinel(t *testing.T) {
	t.Parallel()

	v := catalog.LimitValue(catalog.Unlimited)
	assert.True(t, v.IsUnlimited())
	assert.Equal(t, catalog.KindUnlimited, v.Kind())

	_, ok := v.Limit()
	assert.False(t, ok)
}

func TestValue_Absent(t *testing.T) {
	t.Parallel()

	assert.True(t, catalog.Value{}.Absent())
	assert.False(t, catalog.BoolValue(false).Absent())
	assert.False(t, catalog.LimitValue(0).Absent())
}

func TestFeatureMap_Get(t *testing.T) {
	t.Parallel()

	features := catalog.FeatureMap{
		catalog.FeatureMaxExams:   catalog.LimitValue(10),
		catalog.FeatureAIAnalysis: catalog.BoolValue(true),
	}

	n, ok := features.Get(catalog.FeatureMaxExams).Limit()
	assert.True(t, ok)
	assert.EqualValues(t, 10, n)

	// Unknown keys resolve to an absent value, never an error.
	v := features.Get(catalog.Feature("made_up_key"))
	assert.True(t, v.Absent())
	assert.False(t, v.Enabled())

	var nilMap catalog.FeatureMap
	assert.True(t, nilMap.Get(catalog.FeatureAIAnalysis).Absent())
}

func TestMoney_Decimal(t *testing.T) {
	t.Parallel()

	m := catalog.Money{Amount: 1099, Currency: "USD"}
	assert.Equal(t, "10.99", m.Decimal().StringFixed(2))
	assert.False(t, m.IsZero())
	assert.True(t, catalog.Money{Currency: "USD"}.IsZero())
}

func TestTier_Rank(t *testing.T) {
	t.Parallel()

	assert.Less(t, catalog.TierBasic.Rank(), catalog.TierAdvanced.Rank())
	assert.Less(t, catalog.TierAdvanced.Rank(), catalog.TierProfessional.Rank())
	assert.Less(t, catalog.Tier("made_up").Rank(), catalog.TierBasic.Rank())

	assert.True(t, catalog.TierBasic.Valid())
	assert.False(t, catalog.Tier("made_up").Valid())
}
