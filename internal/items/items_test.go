package items

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/campusfound/internal/apperr"
	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/store"
)

type world struct {
	db       *sql.DB
	svc      *Service
	reporter model.Actor
	other    model.Actor
	guard    model.Actor
	category int64
	location int64
}

func newWorld(t *testing.T) *world {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	actor := func(name string, role model.Role) model.Actor {
		u, err := store.CreateUser(ctx, database, name, name+"@campus.test", "hash", role)
		if err != nil {
			t.Fatalf("CreateUser %s: %v", name, err)
		}
		return model.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
	}
	cat, err := store.CreateCategory(ctx, database, "Keys")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	loc, err := store.CreateLocation(ctx, database, "Library")
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}

	return &world{
		db:       database,
		svc:      NewService(database),
		reporter: actor("reporter", model.RoleUser),
		other:    actor("other", model.RoleUser),
		guard:    actor("guard", model.RoleSecurity),
		category: cat.ID,
		location: loc.ID,
	}
}

func (w *world) found(t *testing.T) *model.FoundItem {
	t.Helper()
	it, err := w.svc.ReportFound(context.Background(), w.reporter, FoundInput{
		CategoryID: w.category,
		LocationID: &w.location,
		Title:      "  Bike key  ",
		FoundDate:  time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("ReportFound: %v", err)
	}
	return it
}

func TestReportStartsPending(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	lost, err := w.svc.ReportLost(ctx, w.reporter, LostInput{
		CategoryID:       w.category,
		Title:            "House keys",
		UniqueIdentifier: " tag 42 ",
		LostDate:         time.Now().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("ReportLost: %v", err)
	}
	if lost.Status != model.ItemStatusPending {
		t.Errorf("lost status = %s, want pending", lost.Status)
	}
	if lost.UniqueIdentifier != "tag 42" {
		t.Errorf("identifier = %q, want trimmed", lost.UniqueIdentifier)
	}

	found := w.found(t)
	if found.Status != model.ItemStatusPending || found.Title != "Bike key" {
		t.Errorf("unexpected found item %+v", found)
	}
}

func TestReportValidation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	missing := int64(999)

	tests := []struct {
		name string
		in   LostInput
	}{
		{"blank title", LostInput{CategoryID: w.category, Title: "  ", LostDate: time.Now()}},
		{"no date", LostInput{CategoryID: w.category, Title: "Keys"}},
		{"future date", LostInput{CategoryID: w.category, Title: "Keys", LostDate: time.Now().Add(72 * time.Hour)}},
		{"unknown category", LostInput{CategoryID: 999, Title: "Keys", LostDate: time.Now()}},
		{"unknown location", LostInput{CategoryID: w.category, LocationID: &missing, Title: "Keys", LostDate: time.Now()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.svc.ReportLost(ctx, w.reporter, tt.in)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestGetVisibility(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	it := w.found(t)

	if _, err := w.svc.GetFound(ctx, w.reporter, it.ID); err != nil {
		t.Errorf("reporter: %v", err)
	}
	if _, err := w.svc.GetFound(ctx, w.guard, it.ID); err != nil {
		t.Errorf("staff: %v", err)
	}
	if _, err := w.svc.GetFound(ctx, w.other, it.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected pending item hidden from others, got %v", err)
	}

	if _, err := w.svc.Moderate(ctx, w.guard, model.SideFound, it.ID, "approved"); err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if _, err := w.svc.GetFound(ctx, w.other, it.ID); err != nil {
		t.Errorf("expected approved item visible, got %v", err)
	}
}

func TestModerate(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	it := w.found(t)

	if _, err := w.svc.Moderate(ctx, w.reporter, model.SideFound, it.ID, "approved"); !apperr.Is(err, apperr.KindAuthorization) {
		t.Fatalf("expected authorization error for non-staff, got %v", err)
	}
	for _, status := range []string{"claimed", "resolved", "pending", "bogus"} {
		if _, err := w.svc.Moderate(ctx, w.guard, model.SideFound, it.ID, status); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("status %q: expected validation error, got %v", status, err)
		}
	}
	if _, err := w.svc.Moderate(ctx, w.guard, model.SideFound, 999, "approved"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	st, err := w.svc.Moderate(ctx, w.guard, model.SideFound, it.ID, "approved")
	if err != nil || st != model.ItemStatusApproved {
		t.Fatalf("Moderate = %s, %v", st, err)
	}

	// Once claimed, moderation is locked out.
	if _, err := store.TransitionFoundItemStatus(ctx, w.db, it.ID, model.ItemStatusApproved, model.ItemStatusClaimed); err != nil {
		t.Fatalf("TransitionFoundItemStatus: %v", err)
	}
	_, err = w.svc.Moderate(ctx, w.guard, model.SideFound, it.ID, "archived")
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindStateConflict || appErr.Current != "claimed" {
		t.Fatalf("expected conflict with current claimed, got %v", err)
	}

	trail, err := store.ListActivity(ctx, w.db, "found_item", it.ID)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(trail) != 1 || trail[0].Action != store.ActionItemModerated {
		t.Fatalf("unexpected activity %+v", trail)
	}
}
