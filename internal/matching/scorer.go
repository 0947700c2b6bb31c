package matching

import (
	"math"
	"time"

	"github.com/erazemk/campusfound/internal/model"
)

// Weights sets how much each signal contributes to the score. They are
// normalized by their sum, so only their ratios matter.
type Weights struct {
	Category float64 `toml:"category"`
	Text     float64 `toml:"text"`
	Date     float64 `toml:"date"`
	Location float64 `toml:"location"`
}

// DefaultWeights returns the stock weighting, which sums to 100.
func DefaultWeights() Weights {
	return Weights{Category: 25, Text: 35, Date: 20, Location: 20}
}

func (w Weights) total() float64 {
	return w.Category + w.Text + w.Date + w.Location
}

// ScoreOptions tunes the scorer.
type ScoreOptions struct {
	Weights        Weights
	DateWindowDays int
	// IdentifierFloor is the minimum score for a same-category pair whose
	// unique identifiers match. Zero disables it.
	IdentifierFloor int
}

// DefaultScoreOptions returns the stock scorer settings.
func DefaultScoreOptions() ScoreOptions {
	return ScoreOptions{
		Weights:         DefaultWeights(),
		DateWindowDays:  30,
		IdentifierFloor: 80,
	}
}

// Components are the individual signal values, each in [0, 1].
type Components struct {
	Category float64 `json:"category"`
	Text     float64 `json:"text"`
	Date     float64 `json:"date"`
	Location float64 `json:"location"`
}

// Result is the outcome of scoring one pair.
type Result struct {
	Score      int              `json:"score"`
	Confidence model.Confidence `json:"confidence"`
	Components Components       `json:"components"`
}

// Score rates how likely found is the item described by lost. It is pure:
// identical inputs always yield identical results.
func Score(lost *model.LostItem, found *model.FoundItem, opts ScoreOptions) Result {
	var c Components

	sameCategory := lost.CategoryID == found.CategoryID
	if sameCategory {
		c.Category = 1
	}

	identMatch := identifiersEqual(lost.UniqueIdentifier, found.UniqueIdentifier)
	c.Text = textSimilarity(lost, found, identMatch)
	c.Date = dateProximity(referenceDate(lost), found.FoundDate, opts.DateWindowDays)

	if lost.LocationID != nil && found.LocationID != nil && *lost.LocationID == *found.LocationID {
		c.Location = 1
	}

	w := opts.Weights
	if w.total() <= 0 {
		w = DefaultWeights()
	}
	sum := w.Category*c.Category + w.Text*c.Text + w.Date*c.Date + w.Location*c.Location
	score := int(math.Round(100 * sum / w.total()))

	if sameCategory && identMatch && score < opts.IdentifierFloor {
		score = opts.IdentifierFloor
	}
	score = max(0, min(100, score))

	return Result{
		Score:      score,
		Confidence: model.ConfidenceFor(score),
		Components: c,
	}
}

func identifiersEqual(a, b string) bool {
	na, nb := normalizeIdentifier(a), normalizeIdentifier(b)
	return na != "" && na == nb
}

// textSimilarity is the better of the description similarity and the
// identifier similarity. Titles are folded into the descriptions.
func textSimilarity(lost *model.LostItem, found *model.FoundItem, identMatch bool) float64 {
	if identMatch {
		return 1
	}
	desc := cosine(
		newFingerprint(lost.Title+" "+lost.Description),
		newFingerprint(found.Title+" "+found.Description),
	)
	ident := cosine(
		newFingerprint(lost.UniqueIdentifier),
		newFingerprint(found.UniqueIdentifier),
	)
	return math.Max(desc, ident)
}

func referenceDate(lost *model.LostItem) time.Time {
	if lost.LastSeenDate != nil && !lost.LastSeenDate.IsZero() {
		return *lost.LastSeenDate
	}
	return lost.LostDate
}

// dateProximity decays linearly from 1 on the same day to 0 at the edge of
// the window.
func dateProximity(ref, found time.Time, windowDays int) float64 {
	if ref.IsZero() || found.IsZero() {
		return 0
	}
	if windowDays <= 0 {
		windowDays = DefaultScoreOptions().DateWindowDays
	}
	days := math.Abs(found.Sub(ref).Hours()) / 24
	if days >= float64(windowDays) {
		return 0
	}
	return 1 - days/float64(windowDays)
}
