package usage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/entitlement"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
	"github.com/dmitrymomot/billingkit/pkg/usage"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.New(context.Background(), catalog.NewInMemSource(map[string]catalog.Plan{
		"plan_basic": {
			ID:           "plan_basic",
			Name:         "Basic",
			Tier:         catalog.TierBasic,
			MonthlyPrice: catalog.Money{Amount: 900, Currency: "USD"},
			YearlyPrice:  catalog.Money{Amount: 9000, Currency: "USD"},
			Features: catalog.FeatureMap{
				catalog.FeatureMaxExams: catalog.LimitValue(3),
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
				catalog.FeatureMaxExams: catalog.UnlimitedValue(),
			},
			Public: true,
		},
	}))
	require.NoError(t, err)
	return cat
}

func newCounter(t *testing.T, store subscription.Store, src usage.Source) *usage.Counter {
	t.Helper()

	ent, err := entitlement.NewResolver(testCatalog(t),
		entitlement.WithProvider(entitlement.SourcePersonal, entitlement.NewStoreProvider(store)),
		entitlement.WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)

	return usage.NewCounter(ent, src)
}

func insertLive(t *testing.T, store subscription.Store, planID string) uuid.UUID {
	t.Helper()

	accountID := uuid.New()
	sub := &subscription.Subscription{
		AccountID:          accountID,
		PlanID:             planID,
		Status:             subscription.StatusActive,
		Cycle:              catalog.CycleMonthly,
		CurrentPeriodStart: fixedNow.AddDate(0, 0, -14),
		CurrentPeriodEnd:   fixedNow.AddDate(0, 0, 16),
	}
	require.NoError(t, store.Insert(context.Background(), sub))
	return accountID
}

type failingSource struct{ err error }

func (s *failingSource) Append(ctx context.Context, rec usage.Record) error { return s.err }
func (s *failingSource) CountInPeriod(ctx context.Context, accountID uuid.UUID, category string, start, end time.Time) (int64, error) {
	return 0, s.err
}

func TestNewCounter_PanicsOnNilDeps(t *testing.T) {
	t.Parallel()

	ent, err := entitlement.NewResolver(testCatalog(t),
		entitlement.WithProvider(entitlement.SourcePersonal,
			entitlement.NewStoreProvider(subscription.NewMemoryStore())))
	require.NoError(t, err)

	assert.Panics(t, func() { usage.NewCounter(nil, usage.NewMemorySource()) })
	assert.Panics(t, func() { usage.NewCounter(ent, nil) })
}

func TestCounter_Current(t *testing.T) {
	t.Parallel()

	t.Run("counts only events inside the governing period", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		accountID := insertLive(t, store, "plan_basic")
		src := usage.NewMemorySource()
		counter := newCounter(t, store, src)

		inPeriod := usage.Record{ID: uuid.New(), AccountID: accountID,
			Category: usage.CategoryExamCreated, OccurredAt: fixedNow.AddDate(0, 0, -1)}
		beforePeriod := usage.Record{ID: uuid.New(), AccountID: accountID,
			Category: usage.CategoryExamCreated, OccurredAt: fixedNow.AddDate(0, 0, -20)}
		otherAccount := usage.Record{ID: uuid.New(), AccountID: uuid.New(),
			Category: usage.CategoryExamCreated, OccurredAt: fixedNow}
		otherCategory := usage.Record{ID: uuid.New(), AccountID: accountID,
			Category: "report_generated", OccurredAt: fixedNow}

		for _, rec := range []usage.Record{inPeriod, beforePeriod, otherAccount, otherCategory} {
			require.NoError(t, src.Append(context.Background(), rec))
		}

		count, err := counter.Current(context.Background(), accountID, usage.CategoryExamCreated)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("free tier counts zero", func(t *testing.T) {
		t.Parallel()

		counter := newCounter(t, subscription.NewMemoryStore(), usage.NewMemorySource())
		count, err := counter.Current(context.Background(), uuid.New(), usage.CategoryExamCreated)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestCounter_Remaining(t *testing.T) {
	t.Parallel()

	t.Run("headroom under a numeric limit", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		accountID := insertLive(t, store, "plan_basic")
		src := usage.NewMemorySource()
		counter := newCounter(t, store, src)

		require.NoError(t, counter.Record(context.Background(), accountID, usage.CategoryExamCreated))

		remaining, err := counter.Remaining(context.Background(), accountID, usage.CategoryExamCreated)
		require.NoError(t, err)
		assert.False(t, remaining.Unlimited)
		assert.EqualValues(t, 2, remaining.N)
	})

	t.Run("unlimited plan", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		accountID := insertLive(t, store, "plan_professional")
		counter := newCounter(t, store, usage.NewMemorySource())

		remaining, err := counter.Remaining(context.Background(), accountID, usage.CategoryExamCreated)
		require.NoError(t, err)
		assert.True(t, remaining.Unlimited)
	})

	t.Run("free tier has no headroom", func(t *testing.T) {
		t.Parallel()

		counter := newCounter(t, subscription.NewMemoryStore(), usage.NewMemorySource())
		remaining, err := counter.Remaining(context.Background(), uuid.New(), usage.CategoryExamCreated)
		require.NoError(t, err)
		assert.False(t, remaining.Unlimited)
		assert.Zero(t, remaining.N)
	})

	t.Run("unknown category", func(t *testing.T) {
		t.Parallel()

		counter := newCounter(t, subscription.NewMemoryStore(), usage.NewMemorySource())
		_, err := counter.Remaining(context.Background(), uuid.New(), "made_up")
		require.ErrorIs(t, err, usage.ErrUnknownCategory)
	})
}

func TestCounter_Record(t *testing.T) {
	t.Parallel()

	t.Run("rejects past the limit", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		accountID := insertLive(t, store, "plan_basic")
		counter := newCounter(t, store, usage.NewMemorySource())

		for i := 0; i < 3; i++ {
			require.NoError(t, counter.Record(context.Background(), accountID, usage.CategoryExamCreated))
		}

		err := counter.Record(context.Background(), accountID, usage.CategoryExamCreated)
		require.ErrorIs(t, err, usage.ErrLimitExceeded)

		assert.False(t, counter.CanRecordMore(context.Background(), accountID, usage.CategoryExamCreated))
	})

	t.Run("unlimited plan never exhausts", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		accountID := insertLive(t, store, "plan_professional")
		counter := newCounter(t, store, usage.NewMemorySource())

		for i := 0; i < 10; i++ {
			require.NoError(t, counter.Record(context.Background(), accountID, usage.CategoryExamCreated))
		}
		assert.True(t, counter.CanRecordMore(context.Background(), accountID, usage.CategoryExamCreated))
	})

	t.Run("free tier cannot record", func(t *testing.T) {
		t.Parallel()

		counter := newCounter(t, subscription.NewMemoryStore(), usage.NewMemorySource())
		err := counter.Record(context.Background(), uuid.New(), usage.CategoryExamCreated)
		require.ErrorIs(t, err, usage.ErrLimitExceeded)
	})

	t.Run("append failure surfaces", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		accountID := insertLive(t, store, "plan_professional")
		counter := newCounter(t, store, &failingSource{err: errors.New("redis down")})

		err := counter.Record(context.Background(), accountID, usage.CategoryExamCreated)
		require.ErrorIs(t, err, usage.ErrFailedToAppendRecord)
	})
}

func TestCounter_FailsClosed(t *testing.T) {
	t.Parallel()

	store := subscription.NewMemoryStore()
	accountID := insertLive(t, store, "plan_basic")
	counter := newCounter(t, store, &failingSource{err: errors.New("redis down")})

	// An unverifiable count denies rather than grants.
	assert.False(t, counter.CanRecordMore(context.Background(), accountID, usage.CategoryExamCreated))

	_, err := counter.Remaining(context.Background(), accountID, usage.CategoryExamCreated)
	require.ErrorIs(t, err, usage.ErrFailedToCountUsage)
}

func TestCounter_CustomCategory(t *testing.T) {
	t.Parallel()

	store := subscription.NewMemoryStore()
	accountID := insertLive(t, store, "plan_basic")

	ent, err := entitlement.NewResolver(testCatalog(t),
		entitlement.WithProvider(entitlement.SourcePersonal, entitlement.NewStoreProvider(store)),
		entitlement.WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)

	counter := usage.NewCounter(ent, usage.NewMemorySource(),
		usage.WithCategory("report_generated", catalog.FeatureMaxExams))

	require.NoError(t, counter.Record(context.Background(), accountID, "report_generated"))
	remaining, err := counter.Remaining(context.Background(), accountID, "report_generated")
	require.NoError(t, err)
	assert.EqualValues(t, 2, remaining.N)
}
