package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
)

// HistoryEntry records a committed plan or cycle change. Entries are
// append-only: they are never mutated or deleted.
type HistoryEntry struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	FromPlanID   string
	ToPlanID     string
	FromCycle    catalog.Cycle
	ToCycle      catalog.Cycle
	CreditAmount catalog.Money
	AmountPaid   catalog.Money
	CreatedAt    time.Time
}
