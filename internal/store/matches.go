package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/campusfound/internal/model"
)

// SaveResult describes the outcome of an upserted match.
type SaveResult struct {
	ID      int64
	Created bool
}

// SaveMatch upserts the scored pair. An existing row for the pair keeps its
// identity and review status; only score and confidence change. The pair is
// skipped (nil result, nil error) when either item is missing or no longer
// approved, checked in the same statement as the write.
func SaveMatch(ctx context.Context, q Querier, lostID, foundID int64, score int, confidence model.Confidence) (*SaveResult, error) {
	if _, err := model.ParseConfidence(string(confidence)); err != nil {
		return nil, fmt.Errorf("saving match: %w", err)
	}
	res := &SaveResult{}
	err := q.QueryRowContext(ctx,
		`INSERT INTO matches (lost_item_id, found_item_id, similarity_score, confidence)
		 SELECT ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM lost_items WHERE id = ? AND status = 'approved')
		   AND EXISTS (SELECT 1 FROM found_items WHERE id = ? AND status = 'approved')
		 ON CONFLICT (lost_item_id, found_item_id) DO UPDATE
		 SET similarity_score = excluded.similarity_score,
		     confidence = excluded.confidence,
		     updated_at = CURRENT_TIMESTAMP
		 RETURNING id, updated_at IS NULL`,
		lostID, foundID, score, confidence, lostID, foundID,
	).Scan(&res.ID, &res.Created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("saving match: %w", err)
	}
	return res, nil
}

const matchSelect = `SELECT m.id, m.lost_item_id, m.found_item_id, m.similarity_score, m.confidence,
	        m.status, m.action_date, m.confirmed_by, m.dismissed_by, m.created_at, m.updated_at,
	        l.title AS lost_item_title, f.title AS found_item_title
	 FROM matches m
	 JOIN lost_items l ON l.id = m.lost_item_id
	 JOIN found_items f ON f.id = m.found_item_id`

func scanMatch(row interface{ Scan(...any) error }) (*model.Match, error) {
	m := &model.Match{}
	err := row.Scan(&m.ID, &m.LostItemID, &m.FoundItemID, &m.SimilarityScore, &m.Confidence,
		&m.Status, &m.ActionDate, &m.ConfirmedBy, &m.DismissedBy, &m.CreatedAt, &m.UpdatedAt,
		&m.LostItemTitle, &m.FoundItemTitle)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMatch returns a match by ID.
func GetMatch(ctx context.Context, q Querier, id int64) (*model.Match, error) {
	m, err := scanMatch(q.QueryRowContext(ctx, matchSelect+` WHERE m.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting match: %w", err)
	}
	return m, nil
}

// GetMatchByPair returns the match for a lost/found pair.
func GetMatchByPair(ctx context.Context, q Querier, lostID, foundID int64) (*model.Match, error) {
	m, err := scanMatch(q.QueryRowContext(ctx,
		matchSelect+` WHERE m.lost_item_id = ? AND m.found_item_id = ?`, lostID, foundID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting match by pair: %w", err)
	}
	return m, nil
}

// ListSavedMatches returns suggested matches at or above minScore on lost
// items reported by userID, best first.
func ListSavedMatches(ctx context.Context, q Querier, userID int64, minScore int) ([]model.Match, error) {
	rows, err := q.QueryContext(ctx,
		matchSelect+`
		 WHERE l.user_id = ? AND m.status = 'suggested' AND m.similarity_score >= ?
		 ORDER BY m.similarity_score DESC, m.id`,
		userID, minScore,
	)
	if err != nil {
		return nil, fmt.Errorf("listing saved matches: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// TransitionMatch moves a suggested match to a terminal status and records
// the actor in the column belonging to that status. It returns false when
// the match is no longer suggested (or does not exist).
func TransitionMatch(ctx context.Context, q Querier, id int64, to model.MatchStatus, actorID int64, at time.Time) (bool, error) {
	var query string
	switch to {
	case model.MatchStatusConfirmed:
		query = `UPDATE matches SET status = 'confirmed', confirmed_by = ?, action_date = ?,
		                            updated_at = CURRENT_TIMESTAMP
		         WHERE id = ? AND status = 'suggested'`
	case model.MatchStatusDismissed:
		query = `UPDATE matches SET status = 'dismissed', dismissed_by = ?, action_date = ?,
		                            updated_at = CURRENT_TIMESTAMP
		         WHERE id = ? AND status = 'suggested'`
	default:
		return false, fmt.Errorf("transitioning match: %q is not a terminal status", to)
	}

	res, err := q.ExecContext(ctx, query, actorID, at.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("transitioning match: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("transitioning match: %w", err)
	}
	return n > 0, nil
}
