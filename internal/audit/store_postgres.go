package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"copydesk/internal/application"
	txcontext "copydesk/pkg/platform/tx"
)

// PostgresStore persists the trail in status_history. Appends join whatever
// transaction is on the context so a status update and its audit entry
// commit or roll back together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	var oldStatus *string
	if entry.OldStatus != nil {
		v := string(*entry.OldStatus)
		oldStatus = &v
	}

	query := `
		INSERT INTO status_history (id, application_id, old_status, new_status, remarks, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.ApplicationID,
		oldStatus,
		string(entry.NewStatus),
		entry.Remarks,
		entry.ChangedBy,
		entry.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]Entry, error) {
	query := `
		SELECT id, application_id, old_status, new_status, remarks, changed_by, changed_at
		FROM status_history
		WHERE application_id = $1
		ORDER BY changed_at, id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var trail []Entry
	for rows.Next() {
		var (
			entry     Entry
			oldStatus sql.NullString
			newStatus string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.ApplicationID,
			&oldStatus,
			&newStatus,
			&entry.Remarks,
			&entry.ChangedBy,
			&entry.ChangedAt,
		); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		if oldStatus.Valid {
			st := application.Status(oldStatus.String)
			entry.OldStatus = &st
		}
		entry.NewStatus = application.Status(newStatus)
		trail = append(trail, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}
	return trail, nil
}
