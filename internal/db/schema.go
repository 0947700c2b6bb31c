package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'security', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS categories (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS locations (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS lost_items (
    id                INTEGER PRIMARY KEY,
    user_id           INTEGER NOT NULL REFERENCES users(id),
    category_id       INTEGER NOT NULL REFERENCES categories(id),
    location_id       INTEGER REFERENCES locations(id),
    title             TEXT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    unique_identifier TEXT NOT NULL DEFAULT '',
    lost_date         DATETIME NOT NULL,
    last_seen_date    DATETIME,
    status            TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'approved', 'rejected', 'matched', 'claimed', 'resolved', 'archived')),
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_lost_items_status ON lost_items(status);

CREATE TABLE IF NOT EXISTS found_items (
    id                INTEGER PRIMARY KEY,
    user_id           INTEGER NOT NULL REFERENCES users(id),
    category_id       INTEGER NOT NULL REFERENCES categories(id),
    location_id       INTEGER REFERENCES locations(id),
    title             TEXT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    unique_identifier TEXT NOT NULL DEFAULT '',
    found_date        DATETIME NOT NULL,
    status            TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'approved', 'rejected', 'matched', 'claimed', 'resolved', 'archived')),
    resolved_at       DATETIME,
    resolved_by       INTEGER REFERENCES users(id),
    resolution_notes  TEXT NOT NULL DEFAULT '',
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_found_items_status ON found_items(status);

CREATE TABLE IF NOT EXISTS matches (
    id               INTEGER PRIMARY KEY,
    lost_item_id     INTEGER NOT NULL REFERENCES lost_items(id),
    found_item_id    INTEGER NOT NULL REFERENCES found_items(id),
    similarity_score INTEGER NOT NULL CHECK (similarity_score BETWEEN 0 AND 100),
    confidence       TEXT NOT NULL CHECK (confidence IN ('low', 'medium', 'high')),
    status           TEXT NOT NULL DEFAULT 'suggested' CHECK (status IN ('suggested', 'confirmed', 'dismissed')),
    action_date      DATETIME,
    confirmed_by     INTEGER REFERENCES users(id),
    dismissed_by     INTEGER REFERENCES users(id),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME,
    UNIQUE (lost_item_id, found_item_id),
    CHECK (confirmed_by IS NULL OR dismissed_by IS NULL)
);

CREATE TABLE IF NOT EXISTS claims (
    id                 INTEGER PRIMARY KEY,
    found_item_id      INTEGER NOT NULL REFERENCES found_items(id),
    claimant_user_id   INTEGER NOT NULL REFERENCES users(id),
    description        TEXT NOT NULL,
    proof_details      TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled', 'completed')),
    verified_by        INTEGER REFERENCES users(id),
    verified_at        DATETIME,
    verification_notes TEXT NOT NULL DEFAULT '',
    rejection_reason   TEXT NOT NULL DEFAULT '',
    pickup_scheduled   DATETIME,
    picked_up_at       DATETIME,
    picked_up_by_name  TEXT NOT NULL DEFAULT '',
    id_presented       TEXT NOT NULL DEFAULT '',
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_claims_one_pending
    ON claims(found_item_id, claimant_user_id) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS claim_images (
    id         INTEGER PRIMARY KEY,
    claim_id   INTEGER NOT NULL REFERENCES claims(id),
    path       TEXT NOT NULL,
    mime       TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    width      INTEGER NOT NULL,
    height     INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
    id         INTEGER PRIMARY KEY,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    kind       TEXT NOT NULL,
    title      TEXT NOT NULL,
    message    TEXT NOT NULL,
    ref_type   TEXT NOT NULL DEFAULT '',
    ref_id     INTEGER,
    read_at    DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS activity (
    id          INTEGER PRIMARY KEY,
    user_id     INTEGER REFERENCES users(id),
    action      TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id   INTEGER NOT NULL,
    details     TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
