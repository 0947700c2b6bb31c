package model

import (
	"fmt"
	"time"
)

// MatchStatus is the review state of a suggested pairing.
type MatchStatus string

// Match statuses. Confirmed and dismissed are terminal.
const (
	MatchStatusSuggested MatchStatus = "suggested"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusDismissed MatchStatus = "dismissed"
)

// ParseMatchStatus converts s into a MatchStatus, rejecting unknown values.
func ParseMatchStatus(s string) (MatchStatus, error) {
	switch MatchStatus(s) {
	case MatchStatusSuggested, MatchStatusConfirmed, MatchStatusDismissed:
		return MatchStatus(s), nil
	}
	return "", fmt.Errorf("invalid match status %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *MatchStatus) UnmarshalText(b []byte) error {
	v, err := ParseMatchStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Terminal reports whether no further transition is allowed from s.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusConfirmed || s == MatchStatusDismissed
}

// Confidence is the coarse band derived from a similarity score.
type Confidence string

// Confidence bands.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence converts s into a Confidence, rejecting unknown values.
func ParseConfidence(s string) (Confidence, error) {
	switch Confidence(s) {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return Confidence(s), nil
	}
	return "", fmt.Errorf("invalid confidence %q", s)
}

// ConfidenceFor buckets a 0-100 score.
func ConfidenceFor(score int) Confidence {
	switch {
	case score >= 75:
		return ConfidenceHigh
	case score >= 50:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Match is a persisted scored pairing between one lost and one found item.
type Match struct {
	ID              int64       `json:"id"`
	LostItemID      int64       `json:"lost_item_id"`
	FoundItemID     int64       `json:"found_item_id"`
	SimilarityScore int         `json:"similarity_score"`
	Confidence      Confidence  `json:"confidence"`
	Status          MatchStatus `json:"status"`
	ActionDate      *time.Time  `json:"action_date,omitempty"`
	ConfirmedBy     *int64      `json:"confirmed_by,omitempty"`
	DismissedBy     *int64      `json:"dismissed_by,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       *time.Time  `json:"updated_at,omitempty"`

	// Joined fields (not always populated).
	LostItemTitle  string `json:"lost_item_title,omitempty"`
	FoundItemTitle string `json:"found_item_title,omitempty"`
}
