package upgrade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/cache"
	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/proration"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

const defaultReplayCacheSize = 1024

// Orchestrator commits plan changes and records downgrade intent.
type Orchestrator struct {
	store   subscription.Store
	calc    *proration.Calculator
	cat     *catalog.Catalog
	clock   func() time.Time
	replays *cache.LRUCache[string, subscription.HistoryEntry]
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the time source for period math. Useful for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// WithReplayCacheSize sets how many idempotent commit results are kept.
func WithReplayCacheSize(size int) Option {
	return func(o *Orchestrator) {
		o.replays = cache.NewLRUCache[string, subscription.HistoryEntry](size)
	}
}

// New creates an Orchestrator. Panics if any dependency is nil to fail
// fast during initialization.
func New(store subscription.Store, calc *proration.Calculator, cat *catalog.Catalog, opts ...Option) *Orchestrator {
	if store == nil {
		panic("upgrade: subscription store is required")
	}
	if calc == nil {
		panic("upgrade: proration calculator is required")
	}
	if cat == nil {
		panic("upgrade: catalog is required")
	}

	o := &Orchestrator{
		store:   store,
		calc:    calc,
		cat:     cat,
		clock:   func() time.Time { return time.Now().UTC() },
		replays: cache.NewLRUCache[string, subscription.HistoryEntry](defaultReplayCacheSize),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CommitOption configures a single commit.
type CommitOption func(*commitConfig)

type commitConfig struct {
	requestID string
}

// WithRequestID makes the commit idempotent: replaying the same account,
// target, and request ID returns the original history entry without
// charging again.
func WithRequestID(requestID string) CommitOption {
	return func(cfg *commitConfig) {
		cfg.requestID = requestID
	}
}

// Commit applies an upgrade: it reprices at commit time, appends the
// history entry, and moves the subscription onto the target plan and
// cycle with a fresh full period starting now. Any previously scheduled
// downgrade is cleared. The mutation and the history entry land together
// or not at all.
//
// Moving to a lower tier or to the identical plan and cycle is declined
// with ErrInvalidTransition; lower tiers go through ScheduleDowngrade.
func (o *Orchestrator) Commit(ctx context.Context, accountID uuid.UUID, targetPlanID string, targetCycle catalog.Cycle, opts ...CommitOption) (subscription.HistoryEntry, error) {
	var cfg commitConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	replayKey := ""
	if cfg.requestID != "" {
		replayKey = fmt.Sprintf("%s|%s|%s|%s", accountID, targetPlanID, targetCycle, cfg.requestID)
		if entry, ok := o.replays.Get(replayKey); ok {
			return entry, nil
		}
	}

	sub, err := o.store.Live(ctx, accountID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return subscription.HistoryEntry{}, ErrNoActiveSubscription
		}
		return subscription.HistoryEntry{}, err
	}

	targetPlan, currentPlan, err := o.plans(ctx, targetPlanID, sub.PlanID)
	if err != nil {
		return subscription.HistoryEntry{}, err
	}

	if targetPlan.ID == currentPlan.ID && targetCycle == sub.Cycle {
		return subscription.HistoryEntry{}, errors.Join(ErrInvalidTransition,
			fmt.Errorf("already on plan %s (%s)", targetPlanID, targetCycle))
	}
	if targetPlan.Tier.Rank() < currentPlan.Tier.Rank() {
		return subscription.HistoryEntry{}, errors.Join(ErrInvalidTransition,
			fmt.Errorf("%s is below %s, schedule a downgrade instead", targetPlan.Tier, currentPlan.Tier))
	}

	// Reprice against fresh state. A quote previewed earlier may be built
	// on prices or periods that have since changed.
	quote, err := o.calc.Quote(ctx, accountID, targetPlanID, targetCycle)
	if err != nil {
		return subscription.HistoryEntry{}, err
	}

	now := o.clock()
	entry := subscription.HistoryEntry{
		ID:           uuid.New(),
		AccountID:    accountID,
		FromPlanID:   sub.PlanID,
		ToPlanID:     targetPlanID,
		FromCycle:    sub.Cycle,
		ToCycle:      targetCycle,
		CreditAmount: quote.CreditAmount,
		AmountPaid:   quote.AmountToPay,
		CreatedAt:    now,
	}

	change := subscription.UpgradeChange{
		PlanID:      targetPlanID,
		Cycle:       targetCycle,
		PeriodStart: now,
		PeriodEnd:   targetCycle.PeriodEnd(now),
	}

	if _, err := o.store.ApplyUpgrade(ctx, sub.ID, sub.Version, change, entry); err != nil {
		if errors.Is(err, subscription.ErrVersionConflict) {
			return subscription.HistoryEntry{}, ErrConcurrencyConflict
		}
		return subscription.HistoryEntry{}, err
	}

	if replayKey != "" {
		o.replays.Put(replayKey, entry)
	}
	return entry, nil
}

// ScheduleDowngrade records a deferred plan change on the live
// subscription. Only the scheduled_* fields are written; the rollover
// process applies the change when the current period ends.
func (o *Orchestrator) ScheduleDowngrade(ctx context.Context, accountID uuid.UUID, targetPlanID string, targetCycle catalog.Cycle) error {
	sub, err := o.store.Live(ctx, accountID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return ErrNoActiveSubscription
		}
		return err
	}

	targetPlan, currentPlan, err := o.plans(ctx, targetPlanID, sub.PlanID)
	if err != nil {
		return err
	}

	if targetPlan.ID == currentPlan.ID && targetCycle == sub.Cycle {
		return errors.Join(ErrInvalidTransition,
			fmt.Errorf("already on plan %s (%s)", targetPlanID, targetCycle))
	}
	if targetPlan.Tier.Rank() > currentPlan.Tier.Rank() {
		return errors.Join(ErrInvalidTransition,
			fmt.Errorf("%s is above %s, commit an upgrade instead", targetPlan.Tier, currentPlan.Tier))
	}

	if _, err := o.store.ScheduleChange(ctx, sub.ID, sub.Version, targetPlanID, targetCycle, sub.CurrentPeriodEnd); err != nil {
		if errors.Is(err, subscription.ErrVersionConflict) {
			return ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// StartTrial creates a trial subscription on the given plan. The trial
// window doubles as the first billing period.
func (o *Orchestrator) StartTrial(ctx context.Context, accountID uuid.UUID, planID string) (*subscription.Subscription, error) {
	plan, err := o.cat.Plan(ctx, planID)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			return nil, ErrUnknownPlan
		}
		return nil, err
	}

	trialDays := plan.TrialDays
	if trialDays <= 0 {
		return nil, errors.Join(ErrInvalidTransition,
			fmt.Errorf("plan %s has no trial", planID))
	}

	now := o.clock()
	trialEnd := now.AddDate(0, 0, trialDays)
	sub := &subscription.Subscription{
		AccountID:          accountID,
		PlanID:             planID,
		Status:             subscription.StatusTrial,
		Cycle:              catalog.CycleMonthly,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
		TrialEndsAt:        &trialEnd,
	}
	if err := o.store.Insert(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// CancelAtPeriodEnd flags the live subscription to not renew. Access
// continues until the current period ends.
func (o *Orchestrator) CancelAtPeriodEnd(ctx context.Context, accountID uuid.UUID) (*subscription.Subscription, error) {
	sub, err := o.store.Live(ctx, accountID)
	if err != nil {
		if errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}

	sub.CancelAtPeriodEnd = true
	updated, err := o.store.Update(ctx, sub)
	if err != nil {
		if errors.Is(err, subscription.ErrVersionConflict) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}
	return updated, nil
}

// History returns the account's committed plan changes, most recent first.
func (o *Orchestrator) History(ctx context.Context, accountID uuid.UUID) ([]subscription.HistoryEntry, error) {
	return o.store.History(ctx, accountID)
}

func (o *Orchestrator) plans(ctx context.Context, targetPlanID, currentPlanID string) (target, current catalog.Plan, err error) {
	target, err = o.cat.Plan(ctx, targetPlanID)
	if err != nil {
		if errors.Is(err, catalog.ErrPlanNotFound) {
			return catalog.Plan{}, catalog.Plan{}, ErrUnknownPlan
		}
		return catalog.Plan{}, catalog.Plan{}, err
	}

	current, err = o.cat.Plan(ctx, currentPlanID)
	if err != nil {
		// The live subscription referencing a missing plan is a fatal
		// configuration error, not a declined operation.
		return catalog.Plan{}, catalog.Plan{}, err
	}
	return target, current, nil
}
