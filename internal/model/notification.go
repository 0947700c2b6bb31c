package model

import "time"

// Notification is an in-app message for one user.
type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	RefType   string     `json:"ref_type,omitempty"`
	RefID     *int64     `json:"ref_id,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Notification kinds.
const (
	NotifyClaimSubmitted  = "claim_submitted"
	NotifyClaimApproved   = "claim_approved"
	NotifyClaimRejected   = "claim_rejected"
	NotifyPickupScheduled = "pickup_scheduled"
	NotifyPickupCompleted = "pickup_completed"
	NotifyMatchConfirmed  = "match_confirmed"
)

// Activity is an audit record of a state change.
type Activity struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
