package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

// storeProvider adapts a subscription.Store into a Provider: the personal
// live subscription, when one exists, is the highest-priority authority.
type storeProvider struct {
	store subscription.Store
}

// NewStoreProvider returns a Provider backed by the personal subscription
// store. Panics if store is nil.
func NewStoreProvider(store subscription.Store) Provider {
	if store == nil {
		panic("entitlement: subscription store is required")
	}
	return &storeProvider{store: store}
}

func (p *storeProvider) Resolve(ctx context.Context, accountID uuid.UUID, _ time.Time) (*subscription.Subscription, error) {
	// The store's live lookup already restricts to trial/active status;
	// period expiry is the rollover process's concern, not the read path's.
	return p.store.Live(ctx, accountID)
}
