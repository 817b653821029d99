package orggrant

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
)

var (
	ErrGrantNotFound = errors.New("organization grant not found")
)

// Grant is an organization-level sponsorship for one account.
type Grant struct {
	AccountID uuid.UUID
	ExpiresAt time.Time
	// Tier the grant should mimic. Nil falls back to the resolver's
	// default sponsored tier.
	Tier *catalog.Tier
}

// ActiveAt reports whether the grant still contributes entitlement at the
// given instant. The expiry boundary is exclusive.
func (g Grant) ActiveAt(now time.Time) bool {
	return now.Before(g.ExpiresAt)
}

// Source looks up the sponsorship flags for an account.
type Source interface {
	// Grant returns the account's grant, expired or not.
	// Returns ErrGrantNotFound when the account is not sponsored.
	Grant(ctx context.Context, accountID uuid.UUID) (Grant, error)
}

// NewMemorySource returns an in-memory Source seeded with the given grants.
func NewMemorySource(grants ...Grant) *MemorySource {
	src := &MemorySource{grants: make(map[uuid.UUID]Grant, len(grants))}
	for _, g := range grants {
		src.grants[g.AccountID] = g
	}
	return src
}

// MemorySource is an in-memory Source for tests and seeding.
type MemorySource struct {
	mu     sync.RWMutex
	grants map[uuid.UUID]Grant
}

// Set stores or replaces the grant for an account.
func (s *MemorySource) Set(grant Grant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grant.AccountID] = grant
}

// Remove deletes the grant for an account.
func (s *MemorySource) Remove(accountID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, accountID)
}

func (s *MemorySource) Grant(ctx context.Context, accountID uuid.UUID) (Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, exists := s.grants[accountID]
	if !exists {
		return Grant{}, ErrGrantNotFound
	}
	return grant, nil
}
