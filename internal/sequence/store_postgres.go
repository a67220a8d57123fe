package sequence

import (
	"context"
	"database/sql"
	"fmt"

	dErrors "copydesk/pkg/domain-errors"
	txcontext "copydesk/pkg/platform/tx"
)

// PostgresAllocator mints G-Numbers from the g_number_sequence table. The
// upsert-increment is one statement, so concurrent allocations serialize on
// the year's row lock and can never observe the same sequence number. The
// counter row for an unseen year is created by the same statement.
type PostgresAllocator struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresAllocator {
	return &PostgresAllocator{db: db}
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (a *PostgresAllocator) querier(ctx context.Context) rowQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return a.db
}

// Allocate atomically increments the year's counter and returns the minted
// G-Number. Note: when called inside a caller-provided transaction the
// increment rolls back with it; call outside the transaction to guarantee
// issued numbers are never reused.
func (a *PostgresAllocator) Allocate(ctx context.Context, year int) (GNumber, error) {
	if year <= 0 {
		return GNumber{}, dErrors.Newf(dErrors.CodeBadRequest, "invalid allocation year %d", year)
	}
	query := `
		INSERT INTO g_number_sequence (year, sequence_number)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET
			sequence_number = g_number_sequence.sequence_number + 1
		RETURNING sequence_number
	`
	var seq int
	if err := a.querier(ctx).QueryRowContext(ctx, query, year).Scan(&seq); err != nil {
		return GNumber{}, dErrors.Wrap(err, dErrors.CodeAllocationFailure,
			fmt.Sprintf("increment sequence for year %d", year))
	}
	return GNumber{Year: year, Sequence: seq}, nil
}
