package model

import (
	"fmt"
	"time"
)

// ClaimStatus is the adjudication state of a claim.
type ClaimStatus string

// Claim statuses.
const (
	ClaimStatusPending   ClaimStatus = "pending"
	ClaimStatusApproved  ClaimStatus = "approved"
	ClaimStatusRejected  ClaimStatus = "rejected"
	ClaimStatusCancelled ClaimStatus = "cancelled"
	ClaimStatusCompleted ClaimStatus = "completed"
)

// ParseClaimStatus converts s into a ClaimStatus, rejecting unknown values.
func ParseClaimStatus(s string) (ClaimStatus, error) {
	switch ClaimStatus(s) {
	case ClaimStatusPending, ClaimStatusApproved, ClaimStatusRejected,
		ClaimStatusCancelled, ClaimStatusCompleted:
		return ClaimStatus(s), nil
	}
	return "", fmt.Errorf("invalid claim status %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ClaimStatus) UnmarshalText(b []byte) error {
	v, err := ParseClaimStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Claim is a claimant's assertion of ownership over a found item.
type Claim struct {
	ID                int64       `json:"id"`
	FoundItemID       int64       `json:"found_item_id"`
	ClaimantUserID    int64       `json:"claimant_user_id"`
	Description       string      `json:"description"`
	ProofDetails      string      `json:"proof_details,omitempty"`
	Status            ClaimStatus `json:"status"`
	VerifiedBy        *int64      `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time  `json:"verified_at,omitempty"`
	VerificationNotes string      `json:"verification_notes,omitempty"`
	RejectionReason   string      `json:"rejection_reason,omitempty"`
	PickupScheduled   *time.Time  `json:"pickup_scheduled,omitempty"`
	PickedUpAt        *time.Time  `json:"picked_up_at,omitempty"`
	PickedUpByName    string      `json:"picked_up_by_name,omitempty"`
	IDPresented       string      `json:"id_presented,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	// Joined fields (not always populated).
	FoundItemTitle   string       `json:"found_item_title,omitempty"`
	ClaimantUsername string       `json:"claimant_username,omitempty"`
	Images           []ClaimImage `json:"images,omitempty"`
}

// ClaimImage is a processed proof photo attached to a claim.
type ClaimImage struct {
	ID        int64     `json:"id"`
	ClaimID   int64     `json:"claim_id"`
	Path      string    `json:"path"`
	MIME      string    `json:"mime"`
	SizeBytes int64     `json:"size_bytes"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}
