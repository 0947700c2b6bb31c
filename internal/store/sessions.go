package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// GetJWTSecret returns the persisted signing key, generating it on first use.
// INSERT OR IGNORE followed by a re-read keeps concurrent first starts from
// disagreeing on the key.
func GetJWTSecret(ctx context.Context, q Querier) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('jwt_secret', ?)`,
		hex.EncodeToString(buf),
	); err != nil {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	var secret string
	if err := q.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'jwt_secret'`,
	).Scan(&secret); err != nil {
		return "", fmt.Errorf("reading jwt secret: %w", err)
	}
	return secret, nil
}

// RevokeToken records a logged-out token until it would have expired anyway.
func RevokeToken(ctx context.Context, q Querier, jti string, expiresAt time.Time) error {
	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Expired revocations can never match again.
	if _, err := q.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().UTC(),
	); err != nil {
		slog.Warn("pruning expired token revocations", "error", err)
	}
	return nil
}

// IsTokenRevoked reports whether the token id has been revoked.
func IsTokenRevoked(ctx context.Context, q Querier, jti string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&n); err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return n > 0, nil
}
