package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: index the lookups made by the claim workflow and the
	// saved-matches listing.
	`CREATE INDEX IF NOT EXISTS idx_claims_found_item ON claims(found_item_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_lost_status ON matches(lost_item_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, read_at)`,
}

// Migrate ensures the schema exists and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
