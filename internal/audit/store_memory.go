package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps outbox events in a slice. Used by unit tests and local
// runs without postgres.
type MemoryStore struct {
	mu        sync.Mutex
	events    []Event
	published map[uuid.UUID]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{published: make(map[uuid.UUID]bool)}
}

func (s *MemoryStore) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) PendingBatch(ctx context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var batch []Event
	for _, e := range s.events {
		if s.published[e.ID] {
			continue
		}
		batch = append(batch, e)
		if len(batch) == limit {
			break
		}
	}
	return batch, nil
}

func (s *MemoryStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.published[id] = true
	}
	return nil
}

// Events returns everything appended so far. Test helper.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
