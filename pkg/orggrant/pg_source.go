package orggrant

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
	"github.com/dmitrymomot/billingkit/pkg/pg"
)

// pgSource reads sponsorship flags from the org_grants table, which is
// administered by the account/profile system.
type pgSource struct {
	pool *pgxpool.Pool
}

// NewPGSource returns a Source backed by Postgres.
func NewPGSource(pool *pgxpool.Pool) Source {
	return &pgSource{pool: pool}
}

func (s *pgSource) Grant(ctx context.Context, accountID uuid.UUID) (Grant, error) {
	var (
		grant Grant
		tier  *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT account_id, expires_at, tier
		FROM org_grants
		WHERE account_id = $1`,
		accountID).Scan(&grant.AccountID, &grant.ExpiresAt, &tier)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Grant{}, ErrGrantNotFound
		}
		return Grant{}, err
	}

	if tier != nil {
		t := catalog.Tier(*tier)
		grant.Tier = &t
	}
	return grant, nil
}
