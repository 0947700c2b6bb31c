package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/campusfound/internal/model"
)

type fixture struct {
	db       *sql.DB
	finder   *model.User
	owner    *model.User
	admin    *model.User
	category *model.Category
	library  *model.Location
}

func newFixture(t *testing.T, database *sql.DB) *fixture {
	t.Helper()
	ctx := context.Background()

	mustUser := func(name string, role model.Role) *model.User {
		u, err := CreateUser(ctx, database, name, name+"@campus.test", "hash", role)
		if err != nil {
			t.Fatalf("CreateUser %s: %v", name, err)
		}
		return u
	}

	cat, err := CreateCategory(ctx, database, "Electronics")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	loc, err := CreateLocation(ctx, database, "Library")
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}

	return &fixture{
		db:       database,
		finder:   mustUser("finder", model.RoleUser),
		owner:    mustUser("owner", model.RoleUser),
		admin:    mustUser("admin", model.RoleAdmin),
		category: cat,
		library:  loc,
	}
}

func (f *fixture) lostItem(t *testing.T, status model.ItemStatus) *model.LostItem {
	t.Helper()
	ctx := context.Background()
	it, err := CreateLostItem(ctx, f.db, NewLostItem{
		UserID:     f.owner.ID,
		CategoryID: f.category.ID,
		LocationID: &f.library.ID,
		Title:      "Black phone",
		LostDate:   time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}
	if status != model.ItemStatusPending {
		if _, err := ModerateItem(ctx, f.db, model.SideLost, it.ID, status); err != nil {
			t.Fatalf("ModerateItem: %v", err)
		}
		it.Status = status
	}
	return it
}

func (f *fixture) foundItem(t *testing.T, status model.ItemStatus) *model.FoundItem {
	t.Helper()
	ctx := context.Background()
	it, err := CreateFoundItem(ctx, f.db, NewFoundItem{
		UserID:     f.finder.ID,
		CategoryID: f.category.ID,
		LocationID: &f.library.ID,
		Title:      "Phone in black case",
		FoundDate:  time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateFoundItem: %v", err)
	}
	if status != model.ItemStatusPending {
		if _, err := ModerateItem(ctx, f.db, model.SideFound, it.ID, status); err != nil {
			t.Fatalf("ModerateItem: %v", err)
		}
		it.Status = status
	}
	return it
}
