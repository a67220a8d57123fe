package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore keeps trails per application behind an RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[uuid.UUID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	s.entries[entry.ApplicationID] = append(s.entries[entry.ApplicationID], *entry)
	return nil
}

// ListByApplication returns the trail ordered by ChangedAt; ties keep
// insertion order so same-timestamp entries stay in chain order.
func (s *InMemoryStore) ListByApplication(_ context.Context, applicationID uuid.UUID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail := append([]Entry{}, s.entries[applicationID]...)
	sort.SliceStable(trail, func(i, j int) bool {
		return trail[i].ChangedAt.Before(trail[j].ChangedAt)
	})
	return trail, nil
}
