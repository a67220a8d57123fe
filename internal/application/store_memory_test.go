package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"copydesk/internal/sequence"
	"copydesk/pkg/platform/sentinel"
)

type ApplicationStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestApplicationStoreSuite(t *testing.T) {
	suite.Run(t, new(ApplicationStoreSuite))
}

func (s *ApplicationStoreSuite) SetupTest() {
	s.now = time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC)
	s.store = NewInMemoryStore().WithClock(func() time.Time { return s.now })
	s.ctx = context.Background()
}

func (s *ApplicationStoreSuite) newApplication(seq int) *Application {
	return &Application{
		ID:            uuid.New(),
		GNumber:       sequence.GNumber{Year: 2024, Sequence: seq},
		Type:          TypeCopy,
		CaseType:      CaseCivil,
		Priority:      PriorityNormal,
		BaseFee:       50,
		ApplicantName: "R. Deshmukh",
		CaseNumber:    "CS 412/2023",
		CaseYear:      2023,
		Status:        StatusSubmitted,
	}
}

func (s *ApplicationStoreSuite) TestCreateAndLookups() {
	app := s.newApplication(1)
	s.Require().NoError(s.store.Create(s.ctx, app))

	found, err := s.store.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal("2024/0001", found.GNumber.String())
	s.Equal(s.now, found.CreatedAt)
	s.Equal(s.now, found.UpdatedAt)

	found, err = s.store.FindByGNumber(s.ctx, app.GNumber)
	s.Require().NoError(err)
	s.Equal(app.ID, found.ID)
}

func (s *ApplicationStoreSuite) TestNotFound() {
	_, err := s.store.GetByID(s.ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByGNumber(s.ctx, sequence.GNumber{Year: 1999, Sequence: 1})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ApplicationStoreSuite) TestDuplicateGNumberRejected() {
	first := s.newApplication(1)
	s.Require().NoError(s.store.Create(s.ctx, first))

	dup := s.newApplication(1) // same G-Number, different ID
	err := s.store.Create(s.ctx, dup)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *ApplicationStoreSuite) TestUpdateRefreshesTimestamp() {
	app := s.newApplication(1)
	s.Require().NoError(s.store.Create(s.ctx, app))
	createdAt := s.now

	s.now = s.now.Add(48 * time.Hour)
	app.Status = StatusARegister
	s.Require().NoError(s.store.Update(s.ctx, app))

	found, err := s.store.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(StatusARegister, found.Status)
	s.Equal(createdAt, found.CreatedAt, "created_at never moves")
	s.Equal(s.now, found.UpdatedAt, "updated_at refreshes on every mutation")
}

func (s *ApplicationStoreSuite) TestGNumberImmutableOnUpdate() {
	app := s.newApplication(1)
	s.Require().NoError(s.store.Create(s.ctx, app))

	tampered := app.Clone()
	tampered.GNumber = sequence.GNumber{Year: 2024, Sequence: 99}
	s.Require().NoError(s.store.Update(s.ctx, tampered))

	found, err := s.store.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal("2024/0001", found.GNumber.String())
}

func (s *ApplicationStoreSuite) TestListByStatus() {
	a := s.newApplication(1)
	s.Require().NoError(s.store.Create(s.ctx, a))

	s.now = s.now.Add(time.Minute)
	b := s.newApplication(2)
	s.Require().NoError(s.store.Create(s.ctx, b))

	s.now = s.now.Add(time.Minute)
	c := s.newApplication(3)
	c.Status = StatusARegister
	s.Require().NoError(s.store.Create(s.ctx, c))

	submitted, err := s.store.ListByStatus(s.ctx, StatusSubmitted)
	s.Require().NoError(err)
	s.Require().Len(submitted, 2)
	s.Equal(a.ID, submitted[0].ID, "ordered by creation time")
	s.Equal(b.ID, submitted[1].ID)

	inRegister, err := s.store.ListByStatus(s.ctx, StatusARegister)
	s.Require().NoError(err)
	s.Require().Len(inRegister, 1)
	s.Equal(c.ID, inRegister[0].ID)
}

func (s *ApplicationStoreSuite) TestStoreReturnsCopies() {
	app := s.newApplication(1)
	s.Require().NoError(s.store.Create(s.ctx, app))

	found, err := s.store.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	found.ApplicantName = "tampered"

	again, err := s.store.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal("R. Deshmukh", again.ApplicantName)
}
