package screening

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu     sync.RWMutex
	events []*Event
}

// NewMemoryStore creates an in-memory audit event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(ctx context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *event
	s.events = append(s.events, &e)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) == 0 {
		return nil, nil
	}

	start := len(s.events) - limit
	if start < 0 {
		start = 0
	}

	// Newest first
	result := make([]*Event, 0, len(s.events)-start)
	for i := len(s.events) - 1; i >= start; i-- {
		e := *s.events[i]
		result = append(result, &e)
	}
	return result, nil
}
