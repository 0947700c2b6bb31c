package model

import "testing"

func TestParseItemStatus(t *testing.T) {
	for _, s := range []string{"pending", "approved", "rejected", "matched", "claimed", "resolved", "archived"} {
		if _, err := ParseItemStatus(s); err != nil {
			t.Errorf("ParseItemStatus(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "active", "APPROVED"} {
		if _, err := ParseItemStatus(s); err == nil {
			t.Errorf("ParseItemStatus(%q) should fail", s)
		}
	}
}

func TestParseClaimStatus(t *testing.T) {
	if _, err := ParseClaimStatus("completed"); err != nil {
		t.Errorf("completed: %v", err)
	}
	if _, err := ParseClaimStatus("done"); err == nil {
		t.Error("expected error for unknown claim status")
	}
}

func TestMatchStatusTerminal(t *testing.T) {
	tests := []struct {
		status   MatchStatus
		terminal bool
	}{
		{MatchStatusSuggested, false},
		{MatchStatusConfirmed, true},
		{MatchStatusDismissed, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestConfidenceFor(t *testing.T) {
	tests := []struct {
		score int
		want  Confidence
	}{
		{0, ConfidenceLow},
		{49, ConfidenceLow},
		{50, ConfidenceMedium},
		{74, ConfidenceMedium},
		{75, ConfidenceHigh},
		{100, ConfidenceHigh},
	}
	for _, tt := range tests {
		if got := ConfidenceFor(tt.score); got != tt.want {
			t.Errorf("ConfidenceFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestSideOpposite(t *testing.T) {
	if SideLost.Opposite() != SideFound || SideFound.Opposite() != SideLost {
		t.Error("Opposite should swap sides")
	}
	if _, err := ParseSide("both"); err == nil {
		t.Error("expected error for unknown side")
	}
}

func TestModeratable(t *testing.T) {
	if ItemStatusClaimed.Moderatable() || ItemStatusResolved.Moderatable() {
		t.Error("claim-owned statuses must not be moderatable")
	}
	if !ItemStatusApproved.Moderatable() {
		t.Error("approved should be moderatable")
	}
}

func TestParseConfidence(t *testing.T) {
	for _, s := range []string{"low", "medium", "high"} {
		if _, err := ParseConfidence(s); err != nil {
			t.Errorf("ParseConfidence(%q): %v", s, err)
		}
	}
	if _, err := ParseConfidence("certain"); err == nil {
		t.Error("ParseConfidence should reject unknown bands")
	}
}
