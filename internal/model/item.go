package model

import (
	"fmt"
	"time"
)

// ItemStatus is the moderation and lifecycle state of a lost or found item.
type ItemStatus string

// Item statuses.
const (
	ItemStatusPending  ItemStatus = "pending"
	ItemStatusApproved ItemStatus = "approved"
	ItemStatusRejected ItemStatus = "rejected"
	ItemStatusMatched  ItemStatus = "matched"
	ItemStatusClaimed  ItemStatus = "claimed"
	ItemStatusResolved ItemStatus = "resolved"
	ItemStatusArchived ItemStatus = "archived"
)

var itemStatuses = map[ItemStatus]bool{
	ItemStatusPending:  true,
	ItemStatusApproved: true,
	ItemStatusRejected: true,
	ItemStatusMatched:  true,
	ItemStatusClaimed:  true,
	ItemStatusResolved: true,
	ItemStatusArchived: true,
}

// ParseItemStatus converts s into an ItemStatus, rejecting unknown values.
func ParseItemStatus(s string) (ItemStatus, error) {
	st := ItemStatus(s)
	if !itemStatuses[st] {
		return "", fmt.Errorf("invalid item status %q", s)
	}
	return st, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ItemStatus) UnmarshalText(b []byte) error {
	v, err := ParseItemStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Moderatable reports whether staff may move an item into status s through
// moderation. Claimed and resolved are owned by the claim workflow.
func (s ItemStatus) Moderatable() bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusRejected, ItemStatusArchived:
		return true
	}
	return false
}

// Side selects the lost or found half of a pairing.
type Side string

// Sides.
const (
	SideLost  Side = "lost"
	SideFound Side = "found"
)

// ParseSide converts s into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideLost, SideFound:
		return Side(s), nil
	}
	return "", fmt.Errorf("invalid side %q", s)
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLost {
		return SideFound
	}
	return SideLost
}

// LostItem is a report of an item someone has lost.
type LostItem struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	CategoryID       int64      `json:"category_id"`
	LocationID       *int64     `json:"location_id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	UniqueIdentifier string     `json:"unique_identifier,omitempty"`
	LostDate         time.Time  `json:"lost_date"`
	LastSeenDate     *time.Time `json:"last_seen_date,omitempty"`
	Status           ItemStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FoundItem is a report of an item someone has found and handed in.
type FoundItem struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	CategoryID       int64      `json:"category_id"`
	LocationID       *int64     `json:"location_id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	UniqueIdentifier string     `json:"unique_identifier,omitempty"`
	FoundDate        time.Time  `json:"found_date"`
	Status           ItemStatus `json:"status"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy       *int64     `json:"resolved_by,omitempty"`
	ResolutionNotes  string     `json:"resolution_notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Category groups items by kind (phones, keys, bags...).
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Location is a named place on campus.
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
