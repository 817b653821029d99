package usage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/entitlement"
)

// Remaining is the headroom left in a quota. Unlimited is a distinct
// signal, never a sentinel count.
type Remaining struct {
	N         int64
	Unlimited bool
}

// Counter answers quota questions for usage categories. Each category maps
// to the plan feature key holding its numeric limit; categories are
// registered at startup.
type Counter struct {
	ent    *entitlement.Resolver
	src    Source
	limits map[string]catalog.Feature
}

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithCategory maps a usage category to the plan feature key holding its
// limit.
func WithCategory(category string, limitKey catalog.Feature) CounterOption {
	return func(c *Counter) {
		c.limits[category] = limitKey
	}
}

// NewCounter creates a Counter. Panics if ent or src is nil to fail fast
// during initialization. The exam_created category is registered by
// default.
func NewCounter(ent *entitlement.Resolver, src Source, opts ...CounterOption) *Counter {
	if ent == nil {
		panic("usage: entitlement resolver is required")
	}
	if src == nil {
		panic("usage: source is required")
	}

	c := &Counter{
		ent: ent,
		src: src,
		limits: map[string]catalog.Feature{
			CategoryExamCreated: catalog.FeatureMaxExams,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the number of events recorded in the governing billing
// period. The free tier has no period, so its count is zero.
func (c *Counter) Current(ctx context.Context, accountID uuid.UUID, category string) (int64, error) {
	gov, err := c.ent.Governing(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if gov.None() {
		return 0, nil
	}
	return c.countInPeriod(ctx, gov, accountID, category)
}

// Remaining returns the quota headroom for a category.
func (c *Counter) Remaining(ctx context.Context, accountID uuid.UUID, category string) (Remaining, error) {
	limitKey, exists := c.limits[category]
	if !exists {
		return Remaining{}, ErrUnknownCategory
	}

	gov, err := c.ent.Governing(ctx, accountID)
	if err != nil {
		return Remaining{}, err
	}
	if gov.None() {
		return Remaining{}, nil
	}

	limit := limitFromValue(gov.Feature(limitKey))
	if limit.Unlimited {
		return Remaining{Unlimited: true}, nil
	}

	count, err := c.countInPeriod(ctx, gov, accountID, category)
	if err != nil {
		return Remaining{}, err
	}

	return Remaining{N: max(0, limit.N-count)}, nil
}

// CanRecordMore reports whether the account may record another event.
// Resolution failures answer false: a quota check that cannot be verified
// fails closed.
func (c *Counter) CanRecordMore(ctx context.Context, accountID uuid.UUID, category string) bool {
	remaining, err := c.Remaining(ctx, accountID, category)
	if err != nil {
		return false
	}
	return remaining.Unlimited || remaining.N > 0
}

// Record appends one event after re-validating the quota against the
// source. The re-count happens immediately before the append so two
// concurrent writers cannot both squeeze past the last slot on a stale
// advisory check.
func (c *Counter) Record(ctx context.Context, accountID uuid.UUID, category string) error {
	limitKey, exists := c.limits[category]
	if !exists {
		return ErrUnknownCategory
	}

	gov, err := c.ent.Governing(ctx, accountID)
	if err != nil {
		return err
	}
	if gov.None() {
		return ErrLimitExceeded
	}

	limit := limitFromValue(gov.Feature(limitKey))
	if !limit.Unlimited {
		count, err := c.countInPeriod(ctx, gov, accountID, category)
		if err != nil {
			return err
		}
		if count >= limit.N {
			return ErrLimitExceeded
		}
	}

	rec := Record{
		ID:         uuid.New(),
		AccountID:  accountID,
		Category:   category,
		OccurredAt: gov.Now,
	}
	if err := c.src.Append(ctx, rec); err != nil {
		return errors.Join(ErrFailedToAppendRecord, err)
	}
	return nil
}

func (c *Counter) countInPeriod(ctx context.Context, gov entitlement.Governing, accountID uuid.UUID, category string) (int64, error) {
	count, err := c.src.CountInPeriod(ctx, accountID, category,
		gov.Sub.CurrentPeriodStart, gov.Sub.CurrentPeriodEnd)
	if err != nil {
		return 0, errors.Join(ErrFailedToCountUsage, err)
	}
	return count, nil
}

func limitFromValue(v catalog.Value) entitlement.Limit {
	if v.IsUnlimited() {
		return entitlement.Limit{Unlimited: true}
	}
	if n, ok := v.Limit(); ok {
		return entitlement.Limit{N: n}
	}
	return entitlement.Limit{}
}
