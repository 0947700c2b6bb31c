package store

import (
	"context"
	"testing"

	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/model"
)

func TestNotifications(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	ref := int64(7)
	err := InsertNotification(ctx, database, model.Notification{
		UserID: f.owner.ID, Kind: model.NotifyClaimApproved,
		Title: "Claim approved", Message: "Your claim was approved", RefType: "claim", RefID: &ref,
	})
	if err != nil {
		t.Fatalf("InsertNotification: %v", err)
	}

	unread, err := ListNotifications(ctx, database, f.owner.ID, true)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("expected 1 unread, got %d", len(unread))
	}

	ok, _ := MarkNotificationRead(ctx, database, unread[0].ID, f.finder.ID)
	if ok {
		t.Error("other user must not mark the notification read")
	}
	ok, err = MarkNotificationRead(ctx, database, unread[0].ID, f.owner.ID)
	if err != nil || !ok {
		t.Fatalf("MarkNotificationRead: ok=%v err=%v", ok, err)
	}

	unread, _ = ListNotifications(ctx, database, f.owner.ID, true)
	if len(unread) != 0 {
		t.Errorf("expected 0 unread, got %d", len(unread))
	}
}

func TestLogActivity(t *testing.T) {
	database := db.NewTestDB(t)
	f := newFixture(t, database)
	ctx := context.Background()

	if err := LogActivity(ctx, database, f.admin.ID, ActionClaimApproved, "claim", 3, "approved"); err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
	if err := LogActivity(ctx, database, 0, ActionClaimRejected, "claim", 3, "system"); err != nil {
		t.Fatalf("LogActivity system: %v", err)
	}

	entries, err := ListActivity(ctx, database, "claim", 3)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	var system int
	for _, e := range entries {
		if e.UserID == nil {
			system++
		}
	}
	if system != 1 {
		t.Errorf("expected 1 system entry, got %d", system)
	}
}
