package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgSource persists usage events in the usage_records table.
type pgSource struct {
	pool *pgxpool.Pool
}

// NewPGSource returns a Source backed by Postgres. Counts run against the
// primary, so the gated write path sees a consistent view.
func NewPGSource(pool *pgxpool.Pool) Source {
	return &pgSource{pool: pool}
}

func (s *pgSource) Append(ctx context.Context, rec Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO usage_records (id, account_id, category, occurred_at)
		VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.AccountID, rec.Category, rec.OccurredAt.UTC())
	if err != nil {
		return errors.Join(ErrFailedToAppendRecord, err)
	}
	return nil
}

func (s *pgSource) CountInPeriod(ctx context.Context, accountID uuid.UUID, category string, start, end time.Time) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM usage_records
		WHERE account_id = $1 AND category = $2
		  AND occurred_at >= $3 AND occurred_at < $4`,
		accountID, category, start.UTC(), end.UTC()).Scan(&count)
	if err != nil {
		return 0, errors.Join(ErrFailedToCountUsage, err)
	}
	return count, nil
}
