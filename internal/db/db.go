package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// pragmas are applied through the DSN so that every pooled connection gets
// them, not only the first one.
var pragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// Open opens a SQLite database connection and configures pragmas.
func Open(path string) (*sql.DB, error) {
	params := make([]string, 0, len(pragmas)+1)
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	// Take the write lock at BEGIN so check-then-write inside a transaction
	// cannot interleave with another writer.
	params = append(params, "_txlock=immediate")

	db, err := sql.Open("sqlite", path+"?"+strings.Join(params, "&"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps ":memory:"
	// databases from splitting across the pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}
