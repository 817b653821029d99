package catalog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Catalog serves the loaded plan set. It owns its cache explicitly: the
// plan set is loaded once at construction and reloaded from the Source
// after the configured TTL elapses. A TTL of zero disables reloading.
//
// Reads are safe for concurrent use. A failed reload keeps the last good
// plan set so read paths stay available while the Source is unreachable.
type Catalog struct {
	src   Source
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	plans    map[string]Plan
	ordered  []Plan // ascending monthly price, ties broken by ID
	loadedAt time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithTTL sets how long a loaded plan set is served before the Source is
// consulted again. Zero (the default) means load once and never reload.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source. Useful for testing TTL expiry with
// fixed time values.
func WithClock(clock func() time.Time) Option {
	return func(c *Catalog) {
		c.clock = clock
	}
}

// New creates a Catalog and performs the initial load. Panics if src is
// nil to fail fast during initialization.
func New(ctx context.Context, src Source, opts ...Option) (*Catalog, error) {
	if src == nil {
		panic("catalog: Source is required")
	}

	c := &Catalog{
		src:   src,
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.reload(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// Plan returns the plan with the given ID.
// Returns ErrPlanNotFound for unknown IDs.
func (c *Catalog) Plan(ctx context.Context, planID string) (Plan, error) {
	c.maybeReload(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()

	plan, exists := c.plans[planID]
	if !exists {
		return Plan{}, ErrPlanNotFound
	}
	return plan.clone(), nil
}

// PlanByTier returns the public plan for a tier. Used to map sponsored
// grants onto a concrete plan.
func (c *Catalog) PlanByTier(ctx context.Context, tier Tier) (Plan, error) {
	c.maybeReload(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, plan := range c.ordered {
		if plan.Tier == tier {
			return plan.clone(), nil
		}
	}
	return Plan{}, ErrPlanNotFound
}

// List returns all plans ordered by ascending monthly price. The order is
// stable: equal prices fall back to plan ID.
func (c *Catalog) List(ctx context.Context) ([]Plan, error) {
	c.maybeReload(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Plan, 0, len(c.ordered))
	for _, plan := range c.ordered {
		out = append(out, plan.clone())
	}
	return out, nil
}

// maybeReload refreshes the plan set when the TTL has elapsed. Reload
// failures are swallowed: plan data is read-mostly and a stale set beats
// an unavailable catalog.
func (c *Catalog) maybeReload(ctx context.Context) {
	if c.ttl <= 0 {
		return
	}

	c.mu.RLock()
	fresh := c.clock().Sub(c.loadedAt) < c.ttl
	c.mu.RUnlock()
	if fresh {
		return
	}

	_ = c.reload(ctx)
}

func (c *Catalog) reload(ctx context.Context) error {
	plans, err := c.src.Load(ctx)
	if err != nil {
		return errors.Join(ErrFailedToLoadPlans, err)
	}

	if err := validatePlans(plans); err != nil {
		return err
	}

	ordered := make([]Plan, 0, len(plans))
	for _, plan := range plans {
		ordered = append(ordered, plan)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].MonthlyPrice.Amount != ordered[j].MonthlyPrice.Amount {
			return ordered[i].MonthlyPrice.Amount < ordered[j].MonthlyPrice.Amount
		}
		return ordered[i].ID < ordered[j].ID
	})

	c.mu.Lock()
	c.plans = plans
	c.ordered = ordered
	c.loadedAt = c.clock()
	c.mu.Unlock()

	return nil
}
