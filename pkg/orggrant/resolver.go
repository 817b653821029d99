package orggrant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

// Resolver synthesizes a subscription-shaped value from an organization
// grant. It is a pure function of the stored grant plus the instant it is
// asked about; it never mutates anything.
type Resolver struct {
	src         Source
	cat         *catalog.Catalog
	defaultTier catalog.Tier
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDefaultTier overrides the tier used for grants that do not name one.
func WithDefaultTier(tier catalog.Tier) ResolverOption {
	return func(r *Resolver) {
		r.defaultTier = tier
	}
}

// NewResolver creates a Resolver. Panics if src or cat is nil to fail fast
// during initialization.
func NewResolver(src Source, cat *catalog.Catalog, opts ...ResolverOption) *Resolver {
	if src == nil {
		panic("orggrant: Source is required")
	}
	if cat == nil {
		panic("orggrant: catalog is required")
	}

	r := &Resolver{
		src:         src,
		cat:         cat,
		defaultTier: catalog.TierProfessional,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a synthetic subscription for a sponsored account, or
// subscription.ErrSubscriptionNotFound when the account has no grant or
// the grant has expired. The synthetic record is never persisted.
func (r *Resolver) Resolve(ctx context.Context, accountID uuid.UUID, now time.Time) (*subscription.Subscription, error) {
	grant, err := r.src.Grant(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrGrantNotFound) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, err
	}

	if !grant.ActiveAt(now) {
		return nil, subscription.ErrSubscriptionNotFound
	}

	tier := r.defaultTier
	if grant.Tier != nil {
		tier = *grant.Tier
	}

	plan, err := r.cat.PlanByTier(ctx, tier)
	if err != nil {
		return nil, err
	}

	expiry := grant.ExpiresAt.UTC()
	return &subscription.Subscription{
		AccountID:          accountID,
		PlanID:             plan.ID,
		Status:             subscription.StatusActive,
		Cycle:              catalog.CycleYearly,
		CurrentPeriodStart: expiry.AddDate(-1, 0, 0),
		CurrentPeriodEnd:   expiry,
	}, nil
}
