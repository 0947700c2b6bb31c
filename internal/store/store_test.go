package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/model"
)

func TestIsUniqueViolation(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	found := f.foundItem(t, model.ItemStatusApproved)
	insertClaim(t, f, found.ID, f.owner.ID)

	_, dupErr := InsertClaim(ctx, database, NewClaim{
		FoundItemID:    found.ID,
		ClaimantUserID: f.owner.ID,
		Description:    "Second pending claim on the same item",
	})
	if dupErr == nil {
		t.Fatal("expected second pending claim to fail")
	}

	_, checkErr := database.ExecContext(ctx,
		`UPDATE claims SET status = 'lost' WHERE found_item_id = ?`, found.ID)
	if checkErr == nil {
		t.Fatal("expected CHECK constraint failure")
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"duplicate pending claim", dupErr, true},
		{"wrapped duplicate", fmt.Errorf("submitting: %w", dupErr), true},
		{"check constraint", checkErr, false},
		{"plain error with sqlite text", errors.New("UNIQUE constraint failed: claims.found_item_id"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "dana", "", "hash", model.RoleUser); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := CreateUser(ctx, database, "dana", "", "hash", model.RoleUser)
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation for duplicate username, got %v", err)
	}
}
