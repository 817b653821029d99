package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/pg"
)

// pgStore is the Postgres-backed Store. Compound writes run in a single
// transaction; the one-live-subscription invariant is enforced by a
// partial unique index on (account_id) for live statuses.
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a Store backed by Postgres.
func NewPGStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const subscriptionColumns = `
id, account_id, plan_id, status, cycle,
current_period_start, current_period_end, trial_ends_at, cancel_at_period_end,
scheduled_plan_id, scheduled_cycle, scheduled_change_at,
version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*Subscription, error) {
	var (
		sub            Subscription
		status         string
		cycle          string
		scheduledCycle string
	)
	err := row.Scan(&sub.ID, &sub.AccountID, &sub.PlanID, &status, &cycle,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.TrialEndsAt, &sub.CancelAtPeriodEnd,
		&sub.ScheduledPlanID, &scheduledCycle, &sub.ScheduledChangeAt,
		&sub.Version, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	sub.Status = Status(status)
	sub.Cycle = catalog.Cycle(cycle)
	sub.ScheduledCycle = catalog.Cycle(scheduledCycle)
	return &sub, nil
}

func (s *pgStore) Live(ctx context.Context, accountID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE account_id = $1 AND status IN ('trial', 'active')`,
		accountID)
	return scanSubscription(row)
}

func (s *pgStore) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = $1`,
		id)
	return scanSubscription(row)
}

func (s *pgStore) Insert(ctx context.Context, sub *Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (
			id, account_id, plan_id, status, cycle,
			current_period_start, current_period_end, trial_ends_at, cancel_at_period_end,
			scheduled_plan_id, scheduled_cycle, scheduled_change_at,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1, now(), now())
		RETURNING `+subscriptionColumns,
		sub.ID, sub.AccountID, sub.PlanID, string(sub.Status), string(sub.Cycle),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialEndsAt, sub.CancelAtPeriodEnd,
		sub.ScheduledPlanID, string(sub.ScheduledCycle), sub.ScheduledChangeAt)

	stored, err := scanSubscription(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrSubscriptionAlreadyExists
		}
		return err
	}

	*sub = *stored
	return nil
}

func (s *pgStore) Update(ctx context.Context, sub *Subscription) (*Subscription, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var currentStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM subscriptions WHERE id = $1 FOR UPDATE`, sub.ID).
		Scan(&currentStatus)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if !CanTransition(Status(currentStatus), sub.Status) {
		return nil, ErrInvalidSubscriptionState
	}

	row := tx.QueryRow(ctx, `
		UPDATE subscriptions SET
			plan_id = $3, status = $4, cycle = $5,
			current_period_start = $6, current_period_end = $7,
			trial_ends_at = $8, cancel_at_period_end = $9,
			scheduled_plan_id = $10, scheduled_cycle = $11, scheduled_change_at = $12,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+subscriptionColumns,
		sub.ID, sub.Version, sub.PlanID, string(sub.Status), string(sub.Cycle),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
		sub.TrialEndsAt, sub.CancelAtPeriodEnd,
		sub.ScheduledPlanID, string(sub.ScheduledCycle), sub.ScheduledChangeAt)

	stored, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			// Row exists (selected above) but the version moved.
			return nil, ErrVersionConflict
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *pgStore) ApplyUpgrade(ctx context.Context, id uuid.UUID, version int64, change UpgradeChange, entry HistoryEntry) (*Subscription, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	row := tx.QueryRow(ctx, `
		UPDATE subscriptions SET
			plan_id = $3, cycle = $4,
			current_period_start = $5, current_period_end = $6,
			scheduled_plan_id = '', scheduled_cycle = '', scheduled_change_at = NULL,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+subscriptionColumns,
		id, version, change.PlanID, string(change.Cycle), change.PeriodStart, change.PeriodEnd)

	stored, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil, s.conflictOrMissing(ctx, id)
		}
		return nil, err
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := tx.Exec(ctx, insertHistoryQuery,
		entry.ID, entry.AccountID, entry.FromPlanID, entry.ToPlanID,
		string(entry.FromCycle), string(entry.ToCycle),
		entry.CreditAmount.Amount, entry.AmountPaid.Amount, entry.CreditAmount.Currency, entry.CreatedAt); err != nil {
		return nil, errors.Join(ErrHistoryAppendFailed, err)
	}

	// Commit makes the mutation and the history entry visible together;
	// any failure above rolls both back.
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *pgStore) ScheduleChange(ctx context.Context, id uuid.UUID, version int64, planID string, cycle catalog.Cycle, changeAt time.Time) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE subscriptions SET
			scheduled_plan_id = $3, scheduled_cycle = $4, scheduled_change_at = $5,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING `+subscriptionColumns,
		id, version, planID, string(cycle), changeAt)

	stored, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil, s.conflictOrMissing(ctx, id)
		}
		return nil, err
	}
	return stored, nil
}

const insertHistoryQuery = `
INSERT INTO upgrade_history (
	id, account_id, from_plan_id, to_plan_id, from_cycle, to_cycle,
	credit_amount, amount_paid, currency, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (s *pgStore) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, insertHistoryQuery,
		entry.ID, entry.AccountID, entry.FromPlanID, entry.ToPlanID,
		string(entry.FromCycle), string(entry.ToCycle),
		entry.CreditAmount.Amount, entry.AmountPaid.Amount, entry.CreditAmount.Currency, entry.CreatedAt)
	if err != nil {
		return errors.Join(ErrHistoryAppendFailed, err)
	}
	return nil
}

func (s *pgStore) History(ctx context.Context, accountID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, account_id, from_plan_id, to_plan_id, from_cycle, to_cycle,
		       credit_amount, amount_paid, currency, created_at
		FROM upgrade_history
		WHERE account_id = $1
		ORDER BY created_at DESC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry     HistoryEntry
			fromCycle string
			toCycle   string
			currency  string
		)
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.FromPlanID, &entry.ToPlanID,
			&fromCycle, &toCycle,
			&entry.CreditAmount.Amount, &entry.AmountPaid.Amount, &currency, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.FromCycle = catalog.Cycle(fromCycle)
		entry.ToCycle = catalog.Cycle(toCycle)
		entry.CreditAmount.Currency = currency
		entry.AmountPaid.Currency = currency
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// conflictOrMissing distinguishes a lost version race from a missing row.
func (s *pgStore) conflictOrMissing(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrSubscriptionNotFound
}
