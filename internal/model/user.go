package model

import (
	"fmt"
	"time"
)

// User represents an authentication user.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Role is a user's authorization level.
type Role string

// Roles. Security officers staff the lost-and-found desk and may adjudicate
// claims; only admins manage users, reference data and matching sweeps.
const (
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"
	RoleUser     Role = "user"
)

var roleLevels = map[Role]int{
	RoleAdmin:    3,
	RoleSecurity: 2,
	RoleUser:     1,
}

// ParseRole converts s into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleLevels[r]; !ok {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum Role) bool {
	have, ok := roleLevels[role]
	if !ok {
		return false
	}
	need, ok := roleLevels[minimum]
	if !ok {
		return false
	}
	return have >= need
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID   int64
	Username string
	Role     Role
}

// IsStaff reports whether the actor may adjudicate claims.
func (a Actor) IsStaff() bool {
	return RoleAtLeast(a.Role, RoleSecurity)
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
