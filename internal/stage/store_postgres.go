package stage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"copydesk/pkg/platform/sentinel"
	txcontext "copydesk/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists stage records across five tables, one per stage.
// Every statement runs on the transaction from the context when present.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

// WithClock overrides the timestamp source. For tests.
func (s *PostgresStore) WithClock(clock func() time.Time) *PostgresStore {
	s.clock = clock
	return s
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

func mapInsertErr(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s exists: %w", what, sentinel.ErrConflict)
	}
	return fmt.Errorf("insert %s: %w", what, err)
}

func (s *PostgresStore) CreateARegister(ctx context.Context, rec *ARegister) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := s.clock()
	rec.CreatedAt, rec.UpdatedAt = now, now

	query := `
		INSERT INTO a_register (id, application_id, received_date, returned_date, processing_days, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		rec.ID, rec.ApplicationID, rec.ReceivedDate, rec.ReturnedDate, rec.ProcessingDays, rec.Remarks, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return mapInsertErr(err, "a-register entry")
	}
	return nil
}

func (s *PostgresStore) CloseARegister(ctx context.Context, rec *ARegister) error {
	query := `
		UPDATE a_register
		SET returned_date = $2, processing_days = $3, remarks = $4, updated_at = $5
		WHERE application_id = $1
	`
	return s.exec(ctx, "a-register entry", query,
		rec.ApplicationID, rec.ReturnedDate, rec.ProcessingDays, rec.Remarks, s.clock())
}

func (s *PostgresStore) ARegisterByApplication(ctx context.Context, applicationID uuid.UUID) (*ARegister, error) {
	query := `
		SELECT id, application_id, received_date, returned_date, processing_days, remarks, created_at, updated_at
		FROM a_register
		WHERE application_id = $1
	`
	rec := &ARegister{}
	var (
		returned sql.NullTime
		days     sql.NullInt64
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, applicationID).Scan(
		&rec.ID, &rec.ApplicationID, &rec.ReceivedDate, &returned, &days, &rec.Remarks, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, mapQueryErr(err, "a-register entry")
	}
	rec.ReturnedDate = nullTimePtr(returned)
	rec.ProcessingDays = nullIntPtr(days)
	return rec, nil
}

func (s *PostgresStore) CreateBRegister(ctx context.Context, rec *BRegister) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := s.clock()
	rec.CreatedAt, rec.UpdatedAt = now, now

	query := `
		INSERT INTO b_register (id, application_id, sent_to_court_date, returned_date, processing_days, compliant, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		rec.ID, rec.ApplicationID, rec.SentToCourtDate, rec.ReturnedDate, rec.ProcessingDays, rec.Compliant, rec.Remarks, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return mapInsertErr(err, "b-register entry")
	}
	return nil
}

func (s *PostgresStore) CloseBRegister(ctx context.Context, rec *BRegister) error {
	query := `
		UPDATE b_register
		SET returned_date = $2, processing_days = $3, compliant = $4, remarks = $5, updated_at = $6
		WHERE application_id = $1
	`
	return s.exec(ctx, "b-register entry", query,
		rec.ApplicationID, rec.ReturnedDate, rec.ProcessingDays, rec.Compliant, rec.Remarks, s.clock())
}

func (s *PostgresStore) BRegisterByApplication(ctx context.Context, applicationID uuid.UUID) (*BRegister, error) {
	query := `
		SELECT id, application_id, sent_to_court_date, returned_date, processing_days, compliant, remarks, created_at, updated_at
		FROM b_register
		WHERE application_id = $1
	`
	rec := &BRegister{}
	var (
		returned  sql.NullTime
		days      sql.NullInt64
		compliant sql.NullBool
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, applicationID).Scan(
		&rec.ID, &rec.ApplicationID, &rec.SentToCourtDate, &returned, &days, &compliant, &rec.Remarks, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, mapQueryErr(err, "b-register entry")
	}
	rec.ReturnedDate = nullTimePtr(returned)
	rec.ProcessingDays = nullIntPtr(days)
	if compliant.Valid {
		rec.Compliant = &compliant.Bool
	}
	return rec, nil
}

func (s *PostgresStore) CreateCallForNotice(ctx context.Context, rec *CallForNotice) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := s.clock()
	rec.CreatedAt, rec.UpdatedAt = now, now

	query := `
		INSERT INTO call_for_notice (id, application_id, notice_date, grace_period_end, pages_estimated, fee_calculated, is_struck_off, struck_off_date, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		rec.ID, rec.ApplicationID, rec.NoticeDate, rec.GracePeriodEnd, rec.PagesEstimated, rec.FeeCalculated, rec.IsStruckOff, rec.StruckOffDate, rec.Remarks, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return mapInsertErr(err, "call-for-notice entry")
	}
	return nil
}

func (s *PostgresStore) UpdateCallForNotice(ctx context.Context, rec *CallForNotice) error {
	query := `
		UPDATE call_for_notice
		SET is_struck_off = $2, struck_off_date = $3, remarks = $4, updated_at = $5
		WHERE application_id = $1
	`
	return s.exec(ctx, "call-for-notice entry", query,
		rec.ApplicationID, rec.IsStruckOff, rec.StruckOffDate, rec.Remarks, s.clock())
}

func (s *PostgresStore) CallForNoticeByApplication(ctx context.Context, applicationID uuid.UUID) (*CallForNotice, error) {
	query := `
		SELECT id, application_id, notice_date, grace_period_end, pages_estimated, fee_calculated, is_struck_off, struck_off_date, remarks, created_at, updated_at
		FROM call_for_notice
		WHERE application_id = $1
	`
	rec := &CallForNotice{}
	var struckOff sql.NullTime
	err := s.execer(ctx).QueryRowContext(ctx, query, applicationID).Scan(
		&rec.ID, &rec.ApplicationID, &rec.NoticeDate, &rec.GracePeriodEnd, &rec.PagesEstimated, &rec.FeeCalculated, &rec.IsStruckOff, &struckOff, &rec.Remarks, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, mapQueryErr(err, "call-for-notice entry")
	}
	rec.StruckOffDate = nullTimePtr(struckOff)
	return rec, nil
}

func (s *PostgresStore) ListOpenNotices(ctx context.Context) ([]CallForNotice, error) {
	query := `
		SELECT n.id, n.application_id, n.notice_date, n.grace_period_end, n.pages_estimated, n.fee_calculated, n.is_struck_off, n.struck_off_date, n.remarks, n.created_at, n.updated_at
		FROM call_for_notice n
		LEFT JOIN payments p ON p.application_id = n.application_id
		WHERE n.is_struck_off = FALSE AND p.id IS NULL
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query open notices: %w", err)
	}
	defer rows.Close()

	var notices []CallForNotice
	for rows.Next() {
		var (
			rec       CallForNotice
			struckOff sql.NullTime
		)
		if err := rows.Scan(
			&rec.ID, &rec.ApplicationID, &rec.NoticeDate, &rec.GracePeriodEnd, &rec.PagesEstimated, &rec.FeeCalculated, &rec.IsStruckOff, &struckOff, &rec.Remarks, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan open notice: %w", err)
		}
		rec.StruckOffDate = nullTimePtr(struckOff)
		notices = append(notices, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate open notices: %w", err)
	}
	return notices, nil
}

func (s *PostgresStore) CreatePayment(ctx context.Context, rec *Payment) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = s.clock()

	query := `
		INSERT INTO payments (id, application_id, paid_date, amount, receipt_number, received_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		rec.ID, rec.ApplicationID, rec.PaidDate, rec.Amount, rec.ReceiptNumber, rec.ReceivedBy, rec.CreatedAt)
	if err != nil {
		return mapInsertErr(err, "payment")
	}
	return nil
}

func (s *PostgresStore) PaymentByApplication(ctx context.Context, applicationID uuid.UUID) (*Payment, error) {
	query := `
		SELECT id, application_id, paid_date, amount, receipt_number, received_by, created_at
		FROM payments
		WHERE application_id = $1
	`
	rec := &Payment{}
	err := s.execer(ctx).QueryRowContext(ctx, query, applicationID).Scan(
		&rec.ID, &rec.ApplicationID, &rec.PaidDate, &rec.Amount, &rec.ReceiptNumber, &rec.ReceivedBy, &rec.CreatedAt)
	if err != nil {
		return nil, mapQueryErr(err, "payment")
	}
	return rec, nil
}

func (s *PostgresStore) CreateXerox(ctx context.Context, rec *XeroxOperation) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := s.clock()
	rec.CreatedAt, rec.UpdatedAt = now, now

	query := `
		INSERT INTO xerox_operations (id, application_id, assigned_date, completed_date, pages_copied, processing_days, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		rec.ID, rec.ApplicationID, rec.AssignedDate, rec.CompletedDate, rec.PagesCopied, rec.ProcessingDays, rec.Remarks, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return mapInsertErr(err, "xerox operation")
	}
	return nil
}

func (s *PostgresStore) CloseXerox(ctx context.Context, rec *XeroxOperation) error {
	query := `
		UPDATE xerox_operations
		SET completed_date = $2, pages_copied = $3, processing_days = $4, remarks = $5, updated_at = $6
		WHERE application_id = $1
	`
	return s.exec(ctx, "xerox operation", query,
		rec.ApplicationID, rec.CompletedDate, rec.PagesCopied, rec.ProcessingDays, rec.Remarks, s.clock())
}

func (s *PostgresStore) XeroxByApplication(ctx context.Context, applicationID uuid.UUID) (*XeroxOperation, error) {
	query := `
		SELECT id, application_id, assigned_date, completed_date, pages_copied, processing_days, remarks, created_at, updated_at
		FROM xerox_operations
		WHERE application_id = $1
	`
	rec := &XeroxOperation{}
	var (
		completed sql.NullTime
		pages     sql.NullInt64
		days      sql.NullInt64
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, applicationID).Scan(
		&rec.ID, &rec.ApplicationID, &rec.AssignedDate, &completed, &pages, &days, &rec.Remarks, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, mapQueryErr(err, "xerox operation")
	}
	rec.CompletedDate = nullTimePtr(completed)
	rec.PagesCopied = nullIntPtr(pages)
	rec.ProcessingDays = nullIntPtr(days)
	return rec, nil
}

func (s *PostgresStore) exec(ctx context.Context, what, query string, args ...any) error {
	res, err := s.execer(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", what, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", what, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	return nil
}

func mapQueryErr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
