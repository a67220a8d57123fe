package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"copydesk/internal/sequence"
	"copydesk/pkg/platform/sentinel"
)

// InMemoryStore keeps applications behind an RWMutex. Records are cloned on
// the way in and out so callers cannot mutate store-owned state.
type InMemoryStore struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]*Application
	byGNumber map[string]uuid.UUID
	clock     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:      make(map[uuid.UUID]*Application),
		byGNumber: make(map[string]uuid.UUID),
		clock:     time.Now,
	}
}

// WithClock swaps the timestamp source for tests.
func (s *InMemoryStore) WithClock(clock func() time.Time) *InMemoryStore {
	s.clock = clock
	return s
}

func (s *InMemoryStore) Create(_ context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := app.GNumber.String()
	if _, exists := s.byGNumber[key]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byID[app.ID]; exists {
		return sentinel.ErrConflict
	}

	now := s.clock()
	app.CreatedAt = now
	app.UpdatedAt = now
	s.byID[app.ID] = app.Clone()
	s.byGNumber[key] = app.ID
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

func (s *InMemoryStore) FindByGNumber(_ context.Context, g sequence.GNumber) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byGNumber[g.String()]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status Status) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Application
	for _, app := range s.byID {
		if app.Status == status {
			out = append(out, app.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[app.ID]
	if !ok {
		return sentinel.ErrNotFound
	}

	cp := app.Clone()
	cp.CreatedAt = existing.CreatedAt
	cp.GNumber = existing.GNumber // immutable once minted
	cp.UpdatedAt = s.clock()
	s.byID[app.ID] = cp
	app.UpdatedAt = cp.UpdatedAt
	return nil
}
