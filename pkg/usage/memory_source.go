package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memorySource is an in-memory append-only event log. Counts are strongly
// consistent, so the gated write path needs no extra re-read.
type memorySource struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemorySource returns an empty in-memory Source.
func NewMemorySource() Source {
	return &memorySource{}
}

func (s *memorySource) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySource) CountInPeriod(ctx context.Context, accountID uuid.UUID, category string, start, end time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, rec := range s.records {
		if rec.AccountID != accountID || rec.Category != category {
			continue
		}
		if rec.OccurredAt.Before(start) || !rec.OccurredAt.Before(end) {
			continue
		}
		count++
	}
	return count, nil
}
