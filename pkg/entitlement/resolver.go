package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

// Provider is one authority that may entitle an account. Resolve returns
// the subscription-shaped value it would govern with, or
// subscription.ErrSubscriptionNotFound when this authority has nothing for
// the account. All time-bounded checks inside a provider must use the now
// argument, never the wall clock.
type Provider interface {
	Resolve(ctx context.Context, accountID uuid.UUID, now time.Time) (*subscription.Subscription, error)
}

// SourceKind names the authority a governing subscription came from.
type SourceKind string

const (
	SourceNone         SourceKind = "none"
	SourcePersonal     SourceKind = "personal"
	SourceOrganization SourceKind = "organization"
)

// Governing is the resolved answer for one account at one instant. When
// Source is SourceNone the account is on the free tier: Sub is nil and
// Plan is the zero plan with an empty feature map.
type Governing struct {
	Source SourceKind
	Sub    *subscription.Subscription
	Plan   catalog.Plan
	Now    time.Time // the instant this resolution was anchored at
}

// None reports whether the account has no entitlement source.
func (g Governing) None() bool {
	return g.Source == SourceNone
}

// Feature returns the typed feature value from the governing plan. The
// free tier has no features, so every key is absent.
func (g Governing) Feature(key catalog.Feature) catalog.Value {
	return g.Plan.Feature(key)
}

type chainEntry struct {
	kind     SourceKind
	provider Provider
}

// Resolver merges the configured providers into one governing decision per
// account.
type Resolver struct {
	cat       *catalog.Catalog
	providers []chainEntry
	clock     func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProvider appends an authority to the chain. Registration order is
// priority order: the first provider with a result wins.
func WithProvider(kind SourceKind, p Provider) Option {
	return func(r *Resolver) {
		if p == nil {
			panic("entitlement: provider cannot be nil")
		}
		r.providers = append(r.providers, chainEntry{kind: kind, provider: p})
	}
}

// WithClock overrides the time source. Useful for testing boundary
// behavior with fixed time values.
func WithClock(clock func() time.Time) Option {
	return func(r *Resolver) {
		r.clock = clock
	}
}

// NewResolver creates a Resolver over the given catalog and providers.
// Panics if cat is nil; fails if no providers are registered.
func NewResolver(cat *catalog.Catalog, opts ...Option) (*Resolver, error) {
	if cat == nil {
		panic("entitlement: catalog is required")
	}

	r := &Resolver{
		cat:   cat,
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}

	if len(r.providers) == 0 {
		return nil, ErrNoProviders
	}
	return r, nil
}

// Governing resolves the single subscription that governs the account
// right now. Every time-bounded check inside this resolution reuses one
// captured timestamp.
func (r *Resolver) Governing(ctx context.Context, accountID uuid.UUID) (Governing, error) {
	now := r.clock()

	for _, entry := range r.providers {
		sub, err := entry.provider.Resolve(ctx, accountID, now)
		if err != nil {
			if errors.Is(err, subscription.ErrSubscriptionNotFound) {
				continue
			}
			return Governing{}, errors.Join(ErrResolutionFailed, err)
		}

		plan, err := r.cat.Plan(ctx, sub.PlanID)
		if err != nil {
			// A live subscription pointing at an unknown plan is a
			// configuration fault, not a user error.
			return Governing{}, errors.Join(ErrResolutionFailed, err)
		}

		return Governing{
			Source: entry.kind,
			Sub:    sub,
			Plan:   plan,
			Now:    now,
		}, nil
	}

	return Governing{Source: SourceNone, Now: now}, nil
}

// HasFeature reports whether the governing plan grants a feature. Absent
// keys and resolution failures answer false; this method never errors for
// "no access".
func (r *Resolver) HasFeature(ctx context.Context, accountID uuid.UUID, key catalog.Feature) bool {
	storedKey, inverted := translateLegacyKey(key)

	gov, err := r.Governing(ctx, accountID)
	if err != nil {
		return false
	}

	value := gov.Feature(storedKey)
	if inverted {
		// Absent still denies: inversion applies only to a present flag.
		if value.Kind() != catalog.KindBool {
			return false
		}
		return !value.Enabled()
	}
	return value.Enabled()
}

// Limit is a numeric entitlement. Unlimited is a distinct signal, never a
// sentinel number, so quota math cannot accidentally treat it as a count.
type Limit struct {
	N         int64
	Unlimited bool
}

// Limit returns the numeric limit for a key under the governing plan. The
// free tier and non-numeric keys yield a zero limit.
func (r *Resolver) Limit(ctx context.Context, accountID uuid.UUID, key catalog.Feature) (Limit, error) {
	gov, err := r.Governing(ctx, accountID)
	if err != nil {
		return Limit{}, err
	}
	return limitFromValue(gov.Feature(key)), nil
}

// IsTrialActive reports whether the governing subscription is in an
// unexpired trial. The trial-end boundary is exclusive.
func (r *Resolver) IsTrialActive(ctx context.Context, accountID uuid.UUID) bool {
	gov, err := r.Governing(ctx, accountID)
	if err != nil || gov.None() {
		return false
	}
	return gov.Sub.TrialActiveAt(gov.Now)
}

// DaysUntilPeriodEnd returns the whole UTC days left in the governing
// billing period, clamped at zero. The free tier has no period.
func (r *Resolver) DaysUntilPeriodEnd(ctx context.Context, accountID uuid.UUID) int {
	gov, err := r.Governing(ctx, accountID)
	if err != nil || gov.None() {
		return 0
	}
	return gov.Sub.DaysUntilPeriodEndAt(gov.Now)
}

func limitFromValue(v catalog.Value) Limit {
	if v.IsUnlimited() {
		return Limit{Unlimited: true}
	}
	if n, ok := v.Limit(); ok {
		return Limit{N: n}
	}
	return Limit{}
}
