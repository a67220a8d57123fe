package main

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "copydesk/pkg/platform/tx"
)

// sqlTxRunner begins a database transaction and threads it through the
// context so every store call inside fn joins it.
type sqlTxRunner struct {
	db *sql.DB
}

func newSQLTxRunner(db *sql.DB) *sqlTxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
