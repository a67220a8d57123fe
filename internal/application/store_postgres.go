package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"copydesk/internal/sequence"
	"copydesk/pkg/platform/sentinel"
	txcontext "copydesk/pkg/platform/tx"
)

// PostgresStore persists applications in the applications table. Pure I/O —
// transition rules and side effects belong to the workflow service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const applicationColumns = `
	id, g_number, application_type, case_type, priority, base_fee,
	applicant_name, applicant_address, advocate_name,
	case_number, case_year, case_details, documents_required,
	status, deadline_date, strike_off_date, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, app *Application) error {
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		app.ID,
		app.GNumber.String(),
		string(app.Type),
		string(app.CaseType),
		string(app.Priority),
		app.BaseFee,
		app.ApplicantName,
		app.ApplicantAddress,
		app.AdvocateName,
		app.CaseNumber,
		app.CaseYear,
		app.CaseDetails,
		app.DocumentsRequired,
		string(app.Status),
		app.DeadlineDate,
		app.StrikeOffDate,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) FindByGNumber(ctx context.Context, g sequence.GNumber) (*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE g_number = $1`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, g.String()))
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE status = $1 ORDER BY created_at`
	rows, err := s.execer(ctx).QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list applications by status: %w", err)
	}
	defer rows.Close()

	var out []*Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return out, nil
}

// Update rewrites all mutable columns and refreshes updated_at. The g_number
// column is deliberately absent: once minted it never changes.
func (s *PostgresStore) Update(ctx context.Context, app *Application) error {
	app.UpdatedAt = time.Now()

	query := `
		UPDATE applications SET
			application_type = $2, case_type = $3, priority = $4, base_fee = $5,
			applicant_name = $6, applicant_address = $7, advocate_name = $8,
			case_number = $9, case_year = $10, case_details = $11, documents_required = $12,
			status = $13, deadline_date = $14, strike_off_date = $15, updated_at = $16
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		app.ID,
		string(app.Type),
		string(app.CaseType),
		string(app.Priority),
		app.BaseFee,
		app.ApplicantName,
		app.ApplicantAddress,
		app.AdvocateName,
		app.CaseNumber,
		app.CaseYear,
		app.CaseDetails,
		app.DocumentsRequired,
		string(app.Status),
		app.DeadlineDate,
		app.StrikeOffDate,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row *sql.Row) (*Application, error) {
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return app, nil
}

func scanApplication(row rowScanner) (*Application, error) {
	var (
		app           Application
		gNumber       string
		appType       string
		caseType      string
		priority      string
		status        string
		deadlineDate  sql.NullTime
		strikeOffDate sql.NullTime
	)
	err := row.Scan(
		&app.ID,
		&gNumber,
		&appType,
		&caseType,
		&priority,
		&app.BaseFee,
		&app.ApplicantName,
		&app.ApplicantAddress,
		&app.AdvocateName,
		&app.CaseNumber,
		&app.CaseYear,
		&app.CaseDetails,
		&app.DocumentsRequired,
		&status,
		&deadlineDate,
		&strikeOffDate,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}

	g, err := sequence.Parse(gNumber)
	if err != nil {
		return nil, fmt.Errorf("stored g_number invalid: %w", err)
	}
	app.GNumber = g
	app.Type = Type(appType)
	app.CaseType = CaseType(caseType)
	app.Priority = Priority(priority)
	app.Status = Status(status)
	if deadlineDate.Valid {
		app.DeadlineDate = &deadlineDate.Time
	}
	if strikeOffDate.Valid {
		app.StrikeOffDate = &strikeOffDate.Time
	}
	return &app, nil
}
