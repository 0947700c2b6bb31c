package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/campusfound/internal/model"
)

const userColumns = `id, username, email, password_hash, role, created_at, deleted_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser creates a new user.
func CreateUser(ctx context.Context, q Querier, username, email, passwordHash string, role model.Role) (*model.User, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, q Querier, id int64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns the active user with the given username.
func GetUserByUsername(ctx context.Context, q Querier, username string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, q Querier) ([]model.User, error) {
	return queryUsers(ctx, q,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`)
}

// ListStaff returns active admins and security officers, the recipients of
// new-claim notifications.
func ListStaff(ctx context.Context, q Querier) ([]model.User, error) {
	return queryUsers(ctx, q,
		`SELECT `+userColumns+` FROM users
		 WHERE deleted_at IS NULL AND role IN ('admin', 'security') ORDER BY id`)
}

func queryUsers(ctx context.Context, q Querier, query string, args ...any) ([]model.User, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's role and email.
func UpdateUser(ctx context.Context, q Querier, id int64, email string, role model.Role) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET email = ?, role = ? WHERE id = ? AND deleted_at IS NULL`,
		email, role, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, q Querier, id int64, passwordHash string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
