package stage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"copydesk/pkg/platform/sentinel"
)

// InMemoryStore keeps one record per stage per application. Backing maps
// are keyed by application ID since the pipeline never opens a second
// record of the same stage for one application.
type InMemoryStore struct {
	mu       sync.RWMutex
	aRegs    map[uuid.UUID]*ARegister
	bRegs    map[uuid.UUID]*BRegister
	notices  map[uuid.UUID]*CallForNotice
	payments map[uuid.UUID]*Payment
	xerox    map[uuid.UUID]*XeroxOperation
	clock    func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		aRegs:    make(map[uuid.UUID]*ARegister),
		bRegs:    make(map[uuid.UUID]*BRegister),
		notices:  make(map[uuid.UUID]*CallForNotice),
		payments: make(map[uuid.UUID]*Payment),
		xerox:    make(map[uuid.UUID]*XeroxOperation),
		clock:    time.Now,
	}
}

// WithClock overrides the timestamp source. For tests.
func (s *InMemoryStore) WithClock(clock func() time.Time) *InMemoryStore {
	s.clock = clock
	return s
}

func (s *InMemoryStore) CreateARegister(_ context.Context, rec *ARegister) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.aRegs[rec.ApplicationID]; exists {
		return sentinel.ErrConflict
	}
	stamp(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt, s.clock)
	clone := *rec
	s.aRegs[rec.ApplicationID] = &clone
	return nil
}

func (s *InMemoryStore) CloseARegister(_ context.Context, rec *ARegister) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.aRegs[rec.ApplicationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	stored.ReturnedDate = rec.ReturnedDate
	stored.ProcessingDays = rec.ProcessingDays
	stored.Remarks = rec.Remarks
	stored.UpdatedAt = s.clock()
	return nil
}

func (s *InMemoryStore) ARegisterByApplication(_ context.Context, applicationID uuid.UUID) (*ARegister, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.aRegs[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *InMemoryStore) CreateBRegister(_ context.Context, rec *BRegister) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bRegs[rec.ApplicationID]; exists {
		return sentinel.ErrConflict
	}
	stamp(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt, s.clock)
	clone := *rec
	s.bRegs[rec.ApplicationID] = &clone
	return nil
}

func (s *InMemoryStore) CloseBRegister(_ context.Context, rec *BRegister) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bRegs[rec.ApplicationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	stored.ReturnedDate = rec.ReturnedDate
	stored.ProcessingDays = rec.ProcessingDays
	stored.Compliant = rec.Compliant
	stored.Remarks = rec.Remarks
	stored.UpdatedAt = s.clock()
	return nil
}

func (s *InMemoryStore) BRegisterByApplication(_ context.Context, applicationID uuid.UUID) (*BRegister, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.bRegs[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *InMemoryStore) CreateCallForNotice(_ context.Context, rec *CallForNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notices[rec.ApplicationID]; exists {
		return sentinel.ErrConflict
	}
	stamp(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt, s.clock)
	clone := *rec
	s.notices[rec.ApplicationID] = &clone
	return nil
}

func (s *InMemoryStore) UpdateCallForNotice(_ context.Context, rec *CallForNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.notices[rec.ApplicationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	stored.IsStruckOff = rec.IsStruckOff
	stored.StruckOffDate = rec.StruckOffDate
	stored.Remarks = rec.Remarks
	stored.UpdatedAt = s.clock()
	return nil
}

func (s *InMemoryStore) CallForNoticeByApplication(_ context.Context, applicationID uuid.UUID) (*CallForNotice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.notices[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

// ListOpenNotices returns notices that are neither paid nor struck off.
// The sweeper uses it to find expired grace periods.
func (s *InMemoryStore) ListOpenNotices(_ context.Context) ([]CallForNotice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []CallForNotice
	for appID, notice := range s.notices {
		if notice.IsStruckOff {
			continue
		}
		if _, paid := s.payments[appID]; paid {
			continue
		}
		open = append(open, *notice)
	}
	return open, nil
}

func (s *InMemoryStore) CreatePayment(_ context.Context, rec *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[rec.ApplicationID]; exists {
		return sentinel.ErrConflict
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = s.clock()
	clone := *rec
	s.payments[rec.ApplicationID] = &clone
	return nil
}

func (s *InMemoryStore) PaymentByApplication(_ context.Context, applicationID uuid.UUID) (*Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.payments[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *InMemoryStore) CreateXerox(_ context.Context, rec *XeroxOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.xerox[rec.ApplicationID]; exists {
		return sentinel.ErrConflict
	}
	stamp(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt, s.clock)
	clone := *rec
	s.xerox[rec.ApplicationID] = &clone
	return nil
}

func (s *InMemoryStore) CloseXerox(_ context.Context, rec *XeroxOperation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.xerox[rec.ApplicationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	stored.CompletedDate = rec.CompletedDate
	stored.PagesCopied = rec.PagesCopied
	stored.ProcessingDays = rec.ProcessingDays
	stored.Remarks = rec.Remarks
	stored.UpdatedAt = s.clock()
	return nil
}

func (s *InMemoryStore) XeroxByApplication(_ context.Context, applicationID uuid.UUID) (*XeroxOperation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.xerox[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func stamp(id *uuid.UUID, createdAt, updatedAt *time.Time, clock func() time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	now := clock()
	*createdAt = now
	*updatedAt = now
}
