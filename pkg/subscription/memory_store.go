package subscription

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/catalog"
)

// memoryStore is an in-memory Store for tests and single-process setups.
// A single mutex serializes writes, which makes the compound upgrade write
// trivially atomic.
type memoryStore struct {
	mu      sync.RWMutex
	subs    map[uuid.UUID]*Subscription
	history map[uuid.UUID][]HistoryEntry // keyed by account ID
	clock   func() time.Time
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		subs:    make(map[uuid.UUID]*Subscription),
		history: make(map[uuid.UUID][]HistoryEntry),
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryStore) Live(ctx context.Context, accountID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub := s.liveLocked(accountID); sub != nil {
		return sub.Clone(), nil
	}
	return nil, ErrSubscriptionNotFound
}

func (s *memoryStore) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.subs[id]
	if !exists {
		return nil, ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (s *memoryStore) Insert(ctx context.Context, sub *Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.Status.Live() && s.liveLocked(sub.AccountID) != nil {
		return ErrSubscriptionAlreadyExists
	}
	if _, exists := s.subs[sub.ID]; exists {
		return ErrSubscriptionAlreadyExists
	}

	now := s.clock()
	stored := sub.Clone()
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.subs[stored.ID] = stored

	*sub = *stored.Clone()
	return nil
}

func (s *memoryStore) Update(ctx context.Context, sub *Subscription) (*Subscription, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.subs[sub.ID]
	if !exists {
		return nil, ErrSubscriptionNotFound
	}
	if current.Version != sub.Version {
		return nil, ErrVersionConflict
	}
	if !CanTransition(current.Status, sub.Status) {
		return nil, ErrInvalidSubscriptionState
	}

	stored := sub.Clone()
	stored.CreatedAt = current.CreatedAt
	stored.Version = current.Version + 1
	stored.UpdatedAt = s.clock()
	s.subs[stored.ID] = stored

	return stored.Clone(), nil
}

func (s *memoryStore) ApplyUpgrade(ctx context.Context, id uuid.UUID, version int64, change UpgradeChange, entry HistoryEntry) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.subs[id]
	if !exists {
		return nil, ErrSubscriptionNotFound
	}
	if current.Version != version {
		return nil, ErrVersionConflict
	}

	now := s.clock()

	stored := current.Clone()
	stored.PlanID = change.PlanID
	stored.Cycle = change.Cycle
	stored.CurrentPeriodStart = change.PeriodStart
	stored.CurrentPeriodEnd = change.PeriodEnd
	stored.ScheduledPlanID = ""
	stored.ScheduledCycle = ""
	stored.ScheduledChangeAt = nil
	stored.Version = current.Version + 1
	stored.UpdatedAt = now

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	// Both writes happen under one lock: the mutation and the history
	// entry land together or, on the error paths above, not at all.
	s.subs[id] = stored
	s.history[entry.AccountID] = append(s.history[entry.AccountID], entry)

	return stored.Clone(), nil
}

func (s *memoryStore) ScheduleChange(ctx context.Context, id uuid.UUID, version int64, planID string, cycle catalog.Cycle, changeAt time.Time) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.subs[id]
	if !exists {
		return nil, ErrSubscriptionNotFound
	}
	if current.Version != version {
		return nil, ErrVersionConflict
	}

	stored := current.Clone()
	stored.ScheduledPlanID = planID
	stored.ScheduledCycle = cycle
	changeAtCopy := changeAt
	stored.ScheduledChangeAt = &changeAtCopy
	stored.Version = current.Version + 1
	stored.UpdatedAt = s.clock()
	s.subs[id] = stored

	return stored.Clone(), nil
}

func (s *memoryStore) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock()
	}
	s.history[entry.AccountID] = append(s.history[entry.AccountID], entry)
	return nil
}

func (s *memoryStore) History(ctx context.Context, accountID uuid.UUID) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.history[accountID]
	out := make([]HistoryEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// liveLocked finds the account's live subscription; callers hold the lock.
func (s *memoryStore) liveLocked(accountID uuid.UUID) *Subscription {
	for _, sub := range s.subs {
		if sub.AccountID == accountID && sub.Status.Live() {
			return sub
		}
	}
	return nil
}
