package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
)

// UpgradeChange carries the subscription fields mutated by an upgrade
// commit. Applied together with the history entry or not at all.
type UpgradeChange struct {
	PlanID      string
	Cycle       catalog.Cycle
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Store defines the persistence contract for subscription records.
//
// All writes stamp UpdatedAt and bump Version. Writes that carry an
// expected version fail with ErrVersionConflict when the record moved
// underneath the caller; the caller retries against fresh state.
type Store interface {
	// Live returns the account's live subscription (status trial or
	// active). Returns ErrSubscriptionNotFound when the account has none.
	Live(ctx context.Context, accountID uuid.UUID) (*Subscription, error)

	// Get returns a subscription by its ID.
	Get(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// Insert creates a subscription. Fails with ErrSubscriptionAlreadyExists
	// when the account already has a live subscription, enforcing the
	// one-live-subscription invariant on write.
	Insert(ctx context.Context, sub *Subscription) error

	// Update writes the record back. The write succeeds only when the
	// stored version matches sub.Version, and only when the status change
	// (if any) is a valid lifecycle transition.
	Update(ctx context.Context, sub *Subscription) (*Subscription, error)

	// ApplyUpgrade atomically mutates the subscription per change, clears
	// any scheduled downgrade, and appends the history entry. Either both
	// writes land or neither does.
	ApplyUpgrade(ctx context.Context, id uuid.UUID, version int64, change UpgradeChange, entry HistoryEntry) (*Subscription, error)

	// ScheduleChange records a deferred downgrade on the subscription
	// without touching plan, price, or period.
	ScheduleChange(ctx context.Context, id uuid.UUID, version int64, planID string, cycle catalog.Cycle, changeAt time.Time) (*Subscription, error)

	// AppendHistory appends a history entry outside of an upgrade commit.
	AppendHistory(ctx context.Context, entry HistoryEntry) error

	// History returns the account's upgrade history, most recent first.
	History(ctx context.Context, accountID uuid.UUID) ([]HistoryEntry, error)
}
