// Package matching scores lost items against found items and persists the
// strongest pairs as suggested matches.
package matching

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/erazemk/campusfound/internal/apperr"
	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/store"
)

// ErrSweepInProgress is returned when another sweep holds the lock.
var ErrSweepInProgress = errors.New("an automatch sweep is already running")

// Options configures an Engine.
type Options struct {
	Scoring ScoreOptions
	// TopN is how many candidates per item are persisted.
	TopN int
	// MinScore is the threshold for saved-match listings.
	MinScore int
	// LockPath, when set, is an advisory lock file held during sweeps.
	LockPath string
}

// DefaultOptions returns the stock engine settings.
func DefaultOptions() Options {
	return Options{
		Scoring:  DefaultScoreOptions(),
		TopN:     5,
		MinScore: 50,
	}
}

// Engine finds, persists and transitions matches.
type Engine struct {
	db   *sql.DB
	opts Options
	now  func() time.Time
}

// NewEngine returns an Engine backed by database.
func NewEngine(database *sql.DB, opts Options) *Engine {
	if opts.TopN <= 0 {
		opts.TopN = DefaultOptions().TopN
	}
	return &Engine{db: database, opts: opts, now: time.Now}
}

// Candidate is one scored counterpart of an item.
type Candidate struct {
	CounterpartID int64            `json:"counterpart_id"`
	Title         string           `json:"title"`
	Score         int              `json:"score"`
	Confidence    model.Confidence `json:"confidence"`
}

// Summary reports the outcome of a sweep.
type Summary struct {
	LostScanned  int `json:"lost_scanned"`
	FoundScanned int `json:"found_scanned"`
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	Skipped      int `json:"skipped"`
}

type pair struct{ lostID, foundID int64 }

// FindCandidates scores every approved item on the opposite side against the
// given item and returns them best first. Items reported by the same user are
// excluded. The top candidates are then saved as suggested matches.
func (e *Engine) FindCandidates(ctx context.Context, actor model.Actor, itemID int64, side model.Side) ([]Candidate, error) {
	var (
		candidates []Candidate
		scores     map[pair]Result
	)

	switch side {
	case model.SideLost:
		lost, err := store.GetLostItem(ctx, e.db, itemID)
		if err != nil {
			return nil, apperr.Internal("loading lost item", err)
		}
		if lost == nil {
			return nil, apperr.NotFound("lost item", itemID)
		}
		if lost.UserID != actor.UserID && !actor.IsStaff() {
			return nil, apperr.Forbidden("only the reporter or staff can look up matches for this item")
		}
		found, err := store.ListFoundItemsByStatus(ctx, e.db, model.ItemStatusApproved)
		if err != nil {
			return nil, apperr.Internal("listing found items", err)
		}
		candidates, scores = e.scoreLost(lost, found)

	case model.SideFound:
		found, err := store.GetFoundItem(ctx, e.db, itemID)
		if err != nil {
			return nil, apperr.Internal("loading found item", err)
		}
		if found == nil {
			return nil, apperr.NotFound("found item", itemID)
		}
		if found.UserID != actor.UserID && !actor.IsStaff() {
			return nil, apperr.Forbidden("only the reporter or staff can look up matches for this item")
		}
		lost, err := store.ListLostItemsByStatus(ctx, e.db, model.ItemStatusApproved)
		if err != nil {
			return nil, apperr.Internal("listing lost items", err)
		}
		candidates, scores = e.scoreFound(found, lost)

	default:
		return nil, apperr.Validation("invalid side %q", side)
	}

	if _, err := e.persist(ctx, scores); err != nil {
		return nil, apperr.Internal("saving matches", err)
	}
	return candidates, nil
}

func (e *Engine) scoreLost(lost *model.LostItem, found []model.FoundItem) ([]Candidate, map[pair]Result) {
	var candidates []Candidate
	results := make(map[int64]Result)
	for i := range found {
		f := &found[i]
		if f.UserID == lost.UserID {
			continue
		}
		r := Score(lost, f, e.opts.Scoring)
		results[f.ID] = r
		candidates = append(candidates, Candidate{CounterpartID: f.ID, Title: f.Title, Score: r.Score, Confidence: r.Confidence})
	}
	rank(candidates)

	top := make(map[pair]Result)
	for _, c := range e.top(candidates) {
		top[pair{lost.ID, c.CounterpartID}] = results[c.CounterpartID]
	}
	return candidates, top
}

func (e *Engine) scoreFound(found *model.FoundItem, lost []model.LostItem) ([]Candidate, map[pair]Result) {
	var candidates []Candidate
	results := make(map[int64]Result)
	for i := range lost {
		l := &lost[i]
		if l.UserID == found.UserID {
			continue
		}
		r := Score(l, found, e.opts.Scoring)
		results[l.ID] = r
		candidates = append(candidates, Candidate{CounterpartID: l.ID, Title: l.Title, Score: r.Score, Confidence: r.Confidence})
	}
	rank(candidates)

	top := make(map[pair]Result)
	for _, c := range e.top(candidates) {
		top[pair{c.CounterpartID, found.ID}] = results[c.CounterpartID]
	}
	return candidates, top
}

// rank sorts by score descending, then counterpart id ascending.
func rank(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].CounterpartID < candidates[j].CounterpartID
	})
}

// top returns the first TopN ranked candidates with a positive score.
func (e *Engine) top(ranked []Candidate) []Candidate {
	var out []Candidate
	for _, c := range ranked {
		if len(out) == e.opts.TopN || c.Score <= 0 {
			break
		}
		out = append(out, c)
	}
	return out
}

// persist upserts every pair in one transaction. Pairs whose items are gone
// or no longer approved are skipped.
func (e *Engine) persist(ctx context.Context, scores map[pair]Result) (Summary, error) {
	var sum Summary
	if len(scores) == 0 {
		return sum, nil
	}

	pairs := make([]pair, 0, len(scores))
	for p := range scores {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].lostID != pairs[j].lostID {
			return pairs[i].lostID < pairs[j].lostID
		}
		return pairs[i].foundID < pairs[j].foundID
	})

	err := db.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		sum = Summary{}
		for _, p := range pairs {
			r := scores[p]
			res, err := store.SaveMatch(ctx, tx, p.lostID, p.foundID, r.Score, r.Confidence)
			if err != nil {
				return err
			}
			switch {
			case res == nil:
				sum.Skipped++
			case res.Created:
				sum.Created++
			default:
				sum.Updated++
			}
		}
		return nil
	})
	return sum, err
}

// RunAutoMatch scores every approved lost item against every approved found
// item and saves the top candidates from both sides. A pair chosen from both
// sides is saved once.
func (e *Engine) RunAutoMatch(ctx context.Context) (*Summary, error) {
	if e.opts.LockPath != "" {
		lock := flock.New(e.opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquiring sweep lock: %w", err)
		}
		if !ok {
			return nil, ErrSweepInProgress
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				slog.Warn("releasing sweep lock", "path", e.opts.LockPath, "error", err)
			}
		}()
	}

	lost, err := store.ListLostItemsByStatus(ctx, e.db, model.ItemStatusApproved)
	if err != nil {
		return nil, err
	}
	found, err := store.ListFoundItemsByStatus(ctx, e.db, model.ItemStatusApproved)
	if err != nil {
		return nil, err
	}

	scores := make(map[pair]Result)
	for i := range lost {
		_, top := e.scoreLost(&lost[i], found)
		for p, r := range top {
			scores[p] = r
		}
	}
	for i := range found {
		_, top := e.scoreFound(&found[i], lost)
		for p, r := range top {
			scores[p] = r
		}
	}

	sum, err := e.persist(ctx, scores)
	if err != nil {
		return nil, fmt.Errorf("saving matches: %w", err)
	}
	sum.LostScanned = len(lost)
	sum.FoundScanned = len(found)
	return &sum, nil
}

// RunPeriodic sweeps every interval until ctx is cancelled. Failed sweeps
// are logged; a sweep already running elsewhere is not an error.
func (e *Engine) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := e.now()
			sum, err := e.RunAutoMatch(ctx)
			switch {
			case err != nil && ctx.Err() != nil:
				return
			case errors.Is(err, ErrSweepInProgress):
				slog.Info("skipping automatch sweep, another one is running")
			case err != nil:
				slog.Error("automatch sweep failed", "error", err)
			default:
				slog.Info("automatch sweep finished",
					"lost", sum.LostScanned,
					"found", sum.FoundScanned,
					"created", sum.Created,
					"updated", sum.Updated,
					"skipped", sum.Skipped,
					"duration", time.Since(start),
				)
			}
		}
	}
}

// SavedMatches returns the actor's suggested matches at or above the
// configured minimum score.
func (e *Engine) SavedMatches(ctx context.Context, actor model.Actor) ([]model.Match, error) {
	matches, err := store.ListSavedMatches(ctx, e.db, actor.UserID, e.opts.MinScore)
	if err != nil {
		return nil, apperr.Internal("listing saved matches", err)
	}
	return matches, nil
}

// Confirm marks a suggested match as confirmed and notifies the finder.
func (e *Engine) Confirm(ctx context.Context, actor model.Actor, matchID int64) (*model.Match, error) {
	return e.transition(ctx, actor, matchID, model.MatchStatusConfirmed)
}

// Dismiss marks a suggested match as dismissed.
func (e *Engine) Dismiss(ctx context.Context, actor model.Actor, matchID int64) (*model.Match, error) {
	return e.transition(ctx, actor, matchID, model.MatchStatusDismissed)
}

// SetStatus applies a raw status string, which must name a terminal status.
func (e *Engine) SetStatus(ctx context.Context, actor model.Actor, matchID int64, status string) (*model.Match, error) {
	to, err := model.ParseMatchStatus(status)
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if !to.Terminal() {
		return nil, apperr.ValidationCode(apperr.CodeMatchInvalidTransition,
			"status must be %q or %q", model.MatchStatusConfirmed, model.MatchStatusDismissed)
	}
	return e.transition(ctx, actor, matchID, to)
}

func (e *Engine) transition(ctx context.Context, actor model.Actor, matchID int64, to model.MatchStatus) (*model.Match, error) {
	var updated *model.Match
	err := db.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		m, err := store.GetMatch(ctx, tx, matchID)
		if err != nil {
			return apperr.Internal("loading match", err)
		}
		if m == nil {
			return apperr.NotFound("match", matchID)
		}

		lost, err := store.GetLostItem(ctx, tx, m.LostItemID)
		if err != nil {
			return apperr.Internal("loading lost item", err)
		}
		if lost == nil || (lost.UserID != actor.UserID && !actor.IsAdmin()) {
			return apperr.Forbidden("only the owner of the lost item can update this match")
		}

		ok, err := store.TransitionMatch(ctx, tx, matchID, to, actor.UserID, e.now())
		if err != nil {
			return apperr.Internal("updating match", err)
		}
		if !ok {
			current, err := store.GetMatch(ctx, tx, matchID)
			if err != nil {
				return apperr.Internal("loading match", err)
			}
			if current == nil {
				return apperr.NotFound("match", matchID)
			}
			return apperr.Conflict(apperr.CodeMatchInvalidTransition,
				fmt.Sprintf("match is already %s", current.Status),
				string(current.Status), string(model.MatchStatusSuggested))
		}

		action := store.ActionMatchDismissed
		if to == model.MatchStatusConfirmed {
			action = store.ActionMatchConfirmed
			found, err := store.GetFoundItem(ctx, tx, m.FoundItemID)
			if err != nil {
				return apperr.Internal("loading found item", err)
			}
			if found != nil {
				ref := matchID
				err = store.InsertNotification(ctx, tx, model.Notification{
					UserID:  found.UserID,
					Kind:    model.NotifyMatchConfirmed,
					Title:   "Possible owner found",
					Message: fmt.Sprintf("The owner of %q confirmed your found item %q as a match.", lost.Title, found.Title),
					RefType: "match",
					RefID:   &ref,
				})
				if err != nil {
					return apperr.Internal("notifying finder", err)
				}
			}
		}
		if err := store.LogActivity(ctx, tx, actor.UserID, action, "match", matchID, ""); err != nil {
			return apperr.Internal("logging activity", err)
		}

		updated, err = store.GetMatch(ctx, tx, matchID)
		if err != nil {
			return apperr.Internal("loading match", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
