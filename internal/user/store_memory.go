package user

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"copydesk/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*User
	byUsername map[string]*User
	clock      func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[uuid.UUID]*User),
		byUsername: make(map[string]*User),
		clock:      time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Username)
	if _, exists := s.byUsername[key]; exists {
		return sentinel.ErrConflict
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := s.clock()
	u.CreatedAt, u.UpdatedAt = now, now

	clone := *u
	s.byID[u.ID] = &clone
	s.byUsername[key] = &clone
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *InMemoryStore) GetByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}
