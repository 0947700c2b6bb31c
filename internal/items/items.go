// Package items handles lost and found item reports and their moderation.
package items

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erazemk/campusfound/internal/apperr"
	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/store"
)

// MaxTitleLength bounds item titles in runes.
const MaxTitleLength = 200

// clockSkew tolerates reporters whose clocks run slightly ahead.
const clockSkew = 24 * time.Hour

// LostInput is a lost item report.
type LostInput struct {
	CategoryID       int64      `json:"category_id"`
	LocationID       *int64     `json:"location_id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	UniqueIdentifier string     `json:"unique_identifier"`
	LostDate         time.Time  `json:"lost_date"`
	LastSeenDate     *time.Time `json:"last_seen_date,omitempty"`
}

// FoundInput is a found item report.
type FoundInput struct {
	CategoryID       int64     `json:"category_id"`
	LocationID       *int64    `json:"location_id,omitempty"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	UniqueIdentifier string    `json:"unique_identifier"`
	FoundDate        time.Time `json:"found_date"`
}

// Service implements item reporting and moderation.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// NewService returns an item Service.
func NewService(database *sql.DB) *Service {
	return &Service{db: database, now: time.Now}
}

func (s *Service) validate(ctx context.Context, title string, categoryID int64, locationID *int64, dates ...*time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperr.Validation("title must be at most %d characters", MaxTitleLength)
	}
	latest := s.now().Add(clockSkew)
	for i, d := range dates {
		if d == nil {
			continue
		}
		if i == 0 && d.IsZero() {
			return apperr.Validation("date is required")
		}
		if d.After(latest) {
			return apperr.Validation("date cannot be in the future")
		}
	}

	cat, err := store.GetCategory(ctx, s.db, categoryID)
	if err != nil {
		return apperr.Internal("loading category", err)
	}
	if cat == nil {
		return apperr.Validation("category %d does not exist", categoryID)
	}
	if locationID != nil {
		loc, err := store.GetLocation(ctx, s.db, *locationID)
		if err != nil {
			return apperr.Internal("loading location", err)
		}
		if loc == nil {
			return apperr.Validation("location %d does not exist", *locationID)
		}
	}
	return nil
}

// ReportLost records a lost item for the actor. New reports await
// moderation.
func (s *Service) ReportLost(ctx context.Context, actor model.Actor, in LostInput) (*model.LostItem, error) {
	if err := s.validate(ctx, in.Title, in.CategoryID, in.LocationID, &in.LostDate, in.LastSeenDate); err != nil {
		return nil, err
	}
	it, err := store.CreateLostItem(ctx, s.db, store.NewLostItem{
		UserID:           actor.UserID,
		CategoryID:       in.CategoryID,
		LocationID:       in.LocationID,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		UniqueIdentifier: strings.TrimSpace(in.UniqueIdentifier),
		LostDate:         in.LostDate,
		LastSeenDate:     in.LastSeenDate,
	})
	if err != nil {
		return nil, apperr.Internal("creating lost item", err)
	}
	return it, nil
}

// ReportFound records a found item for the actor. New reports await
// moderation.
func (s *Service) ReportFound(ctx context.Context, actor model.Actor, in FoundInput) (*model.FoundItem, error) {
	if err := s.validate(ctx, in.Title, in.CategoryID, in.LocationID, &in.FoundDate); err != nil {
		return nil, err
	}
	it, err := store.CreateFoundItem(ctx, s.db, store.NewFoundItem{
		UserID:           actor.UserID,
		CategoryID:       in.CategoryID,
		LocationID:       in.LocationID,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		UniqueIdentifier: strings.TrimSpace(in.UniqueIdentifier),
		FoundDate:        in.FoundDate,
	})
	if err != nil {
		return nil, apperr.Internal("creating found item", err)
	}
	return it, nil
}

// visible reports whether actor may see an item reported by reporterID.
// Unmoderated and rejected reports stay private to their reporter and staff.
func visible(actor model.Actor, reporterID int64, status model.ItemStatus) bool {
	if actor.UserID == reporterID || actor.IsStaff() {
		return true
	}
	return status != model.ItemStatusPending && status != model.ItemStatusRejected
}

// GetLost returns a lost item.
func (s *Service) GetLost(ctx context.Context, actor model.Actor, id int64) (*model.LostItem, error) {
	it, err := store.GetLostItem(ctx, s.db, id)
	if err != nil {
		return nil, apperr.Internal("loading lost item", err)
	}
	if it == nil || !visible(actor, it.UserID, it.Status) {
		return nil, apperr.NotFound("lost item", id)
	}
	return it, nil
}

// GetFound returns a found item.
func (s *Service) GetFound(ctx context.Context, actor model.Actor, id int64) (*model.FoundItem, error) {
	it, err := store.GetFoundItem(ctx, s.db, id)
	if err != nil {
		return nil, apperr.Internal("loading found item", err)
	}
	if it == nil || !visible(actor, it.UserID, it.Status) {
		return nil, apperr.NotFound("found item", id)
	}
	return it, nil
}

// Moderate moves an item into approved, rejected or archived. Items held by
// the claim workflow cannot be moderated.
func (s *Service) Moderate(ctx context.Context, actor model.Actor, side model.Side, id int64, status string) (model.ItemStatus, error) {
	if !actor.IsStaff() {
		return "", apperr.Forbidden("only admin or security staff can moderate items")
	}
	to, err := model.ParseItemStatus(status)
	if err != nil {
		return "", apperr.Validation("%v", err)
	}
	if !to.Moderatable() || to == model.ItemStatusPending {
		return "", apperr.ValidationCode(apperr.CodeItemInvalidTransition,
			"status must be %q, %q or %q", model.ItemStatusApproved, model.ItemStatusRejected, model.ItemStatusArchived)
	}

	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.ModerateItem(ctx, tx, side, id, to)
		if err != nil {
			return apperr.Internal("moderating item", err)
		}
		if !ok {
			return itemConflict(ctx, tx, side, id)
		}
		if err := store.LogActivity(ctx, tx, actor.UserID, store.ActionItemModerated,
			string(side)+"_item", id, string(to)); err != nil {
			return apperr.Internal("logging activity", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return to, nil
}

func itemConflict(ctx context.Context, q store.Querier, side model.Side, id int64) error {
	var current model.ItemStatus
	if side == model.SideLost {
		it, err := store.GetLostItem(ctx, q, id)
		if err != nil {
			return apperr.Internal("loading lost item", err)
		}
		if it == nil {
			return apperr.NotFound("lost item", id)
		}
		current = it.Status
	} else {
		it, err := store.GetFoundItem(ctx, q, id)
		if err != nil {
			return apperr.Internal("loading found item", err)
		}
		if it == nil {
			return apperr.NotFound("found item", id)
		}
		current = it.Status
	}
	return apperr.Conflict(apperr.CodeItemInvalidTransition,
		fmt.Sprintf("%s item is %s and can no longer be moderated", side, current),
		string(current), "pending, approved, rejected, matched or archived")
}
