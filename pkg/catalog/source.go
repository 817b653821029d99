package catalog

import (
	"context"
	"sync"
)

// Source defines how plans are loaded into the catalog.
type Source interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// inMemSource implements Source over a static in-memory plan map.
type inMemSource struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewInMemSource returns an in-memory Source with a deep copy of the given plans.
func NewInMemSource(plans map[string]Plan) Source {
	plansCopy := make(map[string]Plan, len(plans))
	for id, plan := range plans {
		plansCopy[id] = plan.clone()
	}

	return &inMemSource{
		plans: plansCopy,
	}
}

// Load returns a copy of all available plans from memory.
func (s *inMemSource) Load(ctx context.Context) (map[string]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plansCopy := make(map[string]Plan, len(s.plans))
	for id, plan := range s.plans {
		plansCopy[id] = plan.clone()
	}
	return plansCopy, nil
}
