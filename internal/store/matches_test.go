package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/model"
)

func TestSaveMatchUpsert(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	lost := f.lostItem(t, model.ItemStatusApproved)
	found := f.foundItem(t, model.ItemStatusApproved)

	first, err := SaveMatch(ctx, database, lost.ID, found.ID, 62, model.ConfidenceMedium)
	if err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}
	if first == nil || !first.Created {
		t.Fatalf("expected created result, got %+v", first)
	}

	second, err := SaveMatch(ctx, database, lost.ID, found.ID, 81, model.ConfidenceHigh)
	if err != nil {
		t.Fatalf("SaveMatch again: %v", err)
	}
	if second == nil || second.Created {
		t.Fatalf("expected update result, got %+v", second)
	}
	if second.ID != first.ID {
		t.Errorf("expected same row id %d, got %d", first.ID, second.ID)
	}

	var n int
	database.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&n)
	if n != 1 {
		t.Fatalf("expected exactly 1 match row, got %d", n)
	}

	m, err := GetMatchByPair(ctx, database, lost.ID, found.ID)
	if err != nil || m == nil {
		t.Fatalf("GetMatchByPair: m=%v err=%v", m, err)
	}
	if m.ID != first.ID {
		t.Errorf("pair lookup returned row %d, want %d", m.ID, first.ID)
	}
	if m.SimilarityScore != 81 || m.Confidence != model.ConfidenceHigh {
		t.Errorf("expected latest score 81/high, got %d/%s", m.SimilarityScore, m.Confidence)
	}
	if m.Status != model.MatchStatusSuggested {
		t.Errorf("expected suggested, got %s", m.Status)
	}
}

func TestSaveMatchRejectsUnknownConfidence(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	lost := f.lostItem(t, model.ItemStatusApproved)
	found := f.foundItem(t, model.ItemStatusApproved)

	if _, err := SaveMatch(ctx, database, lost.ID, found.ID, 40, model.Confidence("certain")); err == nil {
		t.Fatal("expected unknown confidence to be rejected")
	}
	m, err := GetMatchByPair(ctx, database, lost.ID, found.ID)
	if err != nil {
		t.Fatalf("GetMatchByPair: %v", err)
	}
	if m != nil {
		t.Errorf("expected no row for rejected save, got %+v", m)
	}
}

func TestSaveMatchSkipsUnapproved(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	lost := f.lostItem(t, model.ItemStatusApproved)
	found := f.foundItem(t, model.ItemStatusPending)

	res, err := SaveMatch(ctx, database, lost.ID, found.ID, 90, model.ConfidenceHigh)
	if err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}
	if res != nil {
		t.Errorf("expected skip for unapproved found item, got %+v", res)
	}

	res, err = SaveMatch(ctx, database, lost.ID, 9999, 90, model.ConfidenceHigh)
	if err != nil {
		t.Fatalf("SaveMatch missing item: %v", err)
	}
	if res != nil {
		t.Error("expected skip for missing found item")
	}
}

func TestTransitionMatchOneWay(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	lost := f.lostItem(t, model.ItemStatusApproved)
	found := f.foundItem(t, model.ItemStatusApproved)
	res, _ := SaveMatch(ctx, database, lost.ID, found.ID, 70, model.ConfidenceMedium)

	now := time.Now()
	ok, err := TransitionMatch(ctx, database, res.ID, model.MatchStatusConfirmed, f.owner.ID, now)
	if err != nil || !ok {
		t.Fatalf("confirm: ok=%v err=%v", ok, err)
	}

	ok, err = TransitionMatch(ctx, database, res.ID, model.MatchStatusDismissed, f.owner.ID, now)
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if ok {
		t.Error("terminal match must not transition again")
	}

	m, _ := GetMatch(ctx, database, res.ID)
	if m.Status != model.MatchStatusConfirmed {
		t.Errorf("expected confirmed, got %s", m.Status)
	}
	if m.ConfirmedBy == nil || *m.ConfirmedBy != f.owner.ID || m.DismissedBy != nil {
		t.Errorf("unexpected actors confirmed=%v dismissed=%v", m.ConfirmedBy, m.DismissedBy)
	}
	if m.ActionDate == nil {
		t.Error("expected action date")
	}

	if _, err := TransitionMatch(ctx, database, res.ID, model.MatchStatusSuggested, f.owner.ID, now); err == nil {
		t.Error("expected error transitioning back to suggested")
	}
}

func TestListSavedMatches(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	lost := f.lostItem(t, model.ItemStatusApproved)
	strong := f.foundItem(t, model.ItemStatusApproved)
	weak := f.foundItem(t, model.ItemStatusApproved)
	reviewed := f.foundItem(t, model.ItemStatusApproved)

	SaveMatch(ctx, database, lost.ID, strong.ID, 88, model.ConfidenceHigh)
	SaveMatch(ctx, database, lost.ID, weak.ID, 30, model.ConfidenceLow)
	r, _ := SaveMatch(ctx, database, lost.ID, reviewed.ID, 90, model.ConfidenceHigh)
	TransitionMatch(ctx, database, r.ID, model.MatchStatusDismissed, f.owner.ID, time.Now())

	matches, err := ListSavedMatches(ctx, database, f.owner.ID, 50)
	if err != nil {
		t.Fatalf("ListSavedMatches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 saved match, got %d", len(matches))
	}
	if matches[0].FoundItemID != strong.ID {
		t.Errorf("expected strong match, got found item %d", matches[0].FoundItemID)
	}
	if matches[0].LostItemTitle == "" || matches[0].FoundItemTitle == "" {
		t.Error("expected joined titles")
	}

	other, _ := ListSavedMatches(ctx, database, f.finder.ID, 50)
	if len(other) != 0 {
		t.Errorf("finder owns no lost items, got %d matches", len(other))
	}
}
