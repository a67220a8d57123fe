//go:build integration

package application_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"copydesk/internal/application"
	"copydesk/internal/sequence"
	"copydesk/pkg/platform/sentinel"
	"copydesk/pkg/testutil/containers"
)

const applicationSchema = `
CREATE TABLE IF NOT EXISTS applications (
	id                 UUID PRIMARY KEY,
	g_number           TEXT NOT NULL UNIQUE,
	application_type   TEXT NOT NULL,
	case_type          TEXT NOT NULL,
	priority           TEXT NOT NULL,
	base_fee           NUMERIC(10, 2) NOT NULL,
	applicant_name     TEXT NOT NULL,
	applicant_address  TEXT NOT NULL DEFAULT '',
	advocate_name      TEXT NOT NULL DEFAULT '',
	case_number        TEXT NOT NULL,
	case_year          INTEGER NOT NULL,
	case_details       TEXT NOT NULL DEFAULT '',
	documents_required TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL,
	deadline_date      TIMESTAMPTZ,
	strike_off_date    TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
)`

type PostgresApplicationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *application.PostgresStore
	ctx      context.Context
}

func TestPostgresApplicationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresApplicationSuite))
}

func (s *PostgresApplicationSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.postgres.Exec(s.T(), applicationSchema)
	s.store = application.NewPostgresStore(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresApplicationSuite) SetupTest() {
	err := s.postgres.TruncateTables(s.ctx, "applications")
	s.Require().NoError(err)
}

func (s *PostgresApplicationSuite) newApplication(seq int) *application.Application {
	return &application.Application{
		ID:            uuid.New(),
		GNumber:       sequence.GNumber{Year: 2024, Sequence: seq},
		Type:          application.TypeCopy,
		CaseType:      application.CaseCivil,
		Priority:      application.PriorityNormal,
		BaseFee:       50,
		ApplicantName: "R. Deshmukh",
		CaseNumber:    "CS 412/2023",
		CaseYear:      2023,
		Status:        application.StatusSubmitted,
	}
}

func (s *PostgresApplicationSuite) TestCreateAndRoundTrip() {
	app := s.newApplication(1)
	s.Require().NoError(s.store.Create(s.ctx, app))

	found, err := s.store.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal("2024/0001", found.GNumber.String())
	s.Equal(application.StatusSubmitted, found.Status)
	s.Nil(found.StrikeOffDate)

	byG, err := s.store.FindByGNumber(s.ctx, app.GNumber)
	s.Require().NoError(err)
	s.Equal(app.ID, byG.ID)
}

func (s *PostgresApplicationSuite) TestDuplicateGNumberRejected() {
	s.Require().NoError(s.store.Create(s.ctx, s.newApplication(1)))

	err := s.store.Create(s.ctx, s.newApplication(1))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresApplicationSuite) TestUpdatePersistsStatusAndStrikeOff() {
	app := s.newApplication(1)
	s.Require().NoError(s.store.Create(s.ctx, app))

	app.Status = application.StatusARegister
	s.Require().NoError(s.store.Update(s.ctx, app))

	found, err := s.store.GetByID(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(application.StatusARegister, found.Status)
	s.True(found.UpdatedAt.After(found.CreatedAt) || found.UpdatedAt.Equal(found.CreatedAt))
}

func (s *PostgresApplicationSuite) TestUpdateUnknownApplication() {
	err := s.store.Update(s.ctx, s.newApplication(9))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresApplicationSuite) TestListByStatusOrdersByCreation() {
	first := s.newApplication(1)
	second := s.newApplication(2)
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))

	apps, err := s.store.ListByStatus(s.ctx, application.StatusSubmitted)
	s.Require().NoError(err)
	s.Require().Len(apps, 2)
	s.Equal(first.ID, apps[0].ID)
	s.Equal(second.ID, apps[1].ID)
}
