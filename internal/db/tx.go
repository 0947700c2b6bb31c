package db

import (
	"context"
	"database/sql"
	"fmt"
)

// WithTx runs fn inside a transaction. The transaction commits if fn returns
// nil and rolls back otherwise. Errors from fn are returned unchanged so
// callers can inspect domain errors.
func WithTx(ctx context.Context, database *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
