package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/model"
)

func TestCreateLostItemDefaultsPending(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	seen := time.Date(2025, 11, 19, 15, 0, 0, 0, time.UTC)
	it, err := CreateLostItem(ctx, database, NewLostItem{
		UserID:           f.owner.ID,
		CategoryID:       f.category.ID,
		Title:            "Blue umbrella",
		UniqueIdentifier: "initials JDC",
		LostDate:         time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
		LastSeenDate:     &seen,
	})
	if err != nil {
		t.Fatalf("CreateLostItem: %v", err)
	}
	if it.Status != model.ItemStatusPending {
		t.Errorf("expected pending, got %s", it.Status)
	}
	if it.LastSeenDate == nil || !it.LastSeenDate.Equal(seen) {
		t.Errorf("expected last seen %v, got %v", seen, it.LastSeenDate)
	}
	if it.LocationID != nil {
		t.Errorf("expected nil location, got %v", *it.LocationID)
	}
}

func TestModerateItemLeavesClaimedAlone(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	found := f.foundItem(t, model.ItemStatusApproved)
	ok, err := TransitionFoundItemStatus(ctx, database, found.ID, model.ItemStatusApproved, model.ItemStatusClaimed)
	if err != nil || !ok {
		t.Fatalf("TransitionFoundItemStatus: ok=%v err=%v", ok, err)
	}

	ok, err = ModerateItem(ctx, database, model.SideFound, found.ID, model.ItemStatusArchived)
	if err != nil {
		t.Fatalf("ModerateItem: %v", err)
	}
	if ok {
		t.Error("moderation must not touch a claimed item")
	}

	got, _ := GetFoundItem(ctx, database, found.ID)
	if got.Status != model.ItemStatusClaimed {
		t.Errorf("expected claimed, got %s", got.Status)
	}
}

func TestTransitionFoundItemStatusIsConditional(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	found := f.foundItem(t, model.ItemStatusPending)
	ok, err := TransitionFoundItemStatus(ctx, database, found.ID, model.ItemStatusApproved, model.ItemStatusClaimed)
	if err != nil {
		t.Fatalf("TransitionFoundItemStatus: %v", err)
	}
	if ok {
		t.Error("expected no-op when item is not in the from status")
	}
}

func TestResolveFoundItem(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	found := f.foundItem(t, model.ItemStatusApproved)
	TransitionFoundItemStatus(ctx, database, found.ID, model.ItemStatusApproved, model.ItemStatusClaimed)

	at := time.Date(2025, 12, 5, 10, 30, 0, 0, time.UTC)
	ok, err := ResolveFoundItem(ctx, database, found.ID, f.admin.ID, "handed over", at)
	if err != nil || !ok {
		t.Fatalf("ResolveFoundItem: ok=%v err=%v", ok, err)
	}

	got, _ := GetFoundItem(ctx, database, found.ID)
	if got.Status != model.ItemStatusResolved {
		t.Errorf("expected resolved, got %s", got.Status)
	}
	if got.ResolvedBy == nil || *got.ResolvedBy != f.admin.ID {
		t.Errorf("expected resolved_by %d, got %v", f.admin.ID, got.ResolvedBy)
	}
	if got.ResolutionNotes != "handed over" {
		t.Errorf("unexpected notes %q", got.ResolutionNotes)
	}
}

func TestListItemsByStatus(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	f.lostItem(t, model.ItemStatusApproved)
	f.lostItem(t, model.ItemStatusPending)
	f.foundItem(t, model.ItemStatusApproved)

	lost, _ := ListLostItemsByStatus(ctx, database, model.ItemStatusApproved)
	if len(lost) != 1 {
		t.Errorf("expected 1 approved lost item, got %d", len(lost))
	}
	found, _ := ListFoundItemsByStatus(ctx, database, model.ItemStatusApproved)
	if len(found) != 1 {
		t.Errorf("expected 1 approved found item, got %d", len(found))
	}
}
