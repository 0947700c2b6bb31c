package store

import (
	"context"
	"fmt"

	"github.com/erazemk/campusfound/internal/model"
)

// Activity actions.
const (
	ActionClaimSubmitted = "claim.submitted"
	ActionClaimApproved  = "claim.approved"
	ActionClaimRejected  = "claim.rejected"
	ActionClaimScheduled = "claim.pickup_scheduled"
	ActionClaimCompleted = "claim.completed"
	ActionClaimCancelled = "claim.cancelled"
	ActionMatchConfirmed = "match.confirmed"
	ActionMatchDismissed = "match.dismissed"
	ActionItemModerated  = "item.moderated"
)

// LogActivity appends an audit record.
func LogActivity(ctx context.Context, q Querier, userID int64, action, entityType string, entityID int64, details string) error {
	var uid *int64
	if userID > 0 {
		uid = &userID
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO activity (user_id, action, entity_type, entity_id, details)
		 VALUES (?, ?, ?, ?, ?)`,
		uid, action, entityType, entityID, details,
	)
	if err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// ListActivity returns the audit trail of one entity, oldest first.
func ListActivity(ctx context.Context, q Querier, entityType string, entityID int64) ([]model.Activity, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, user_id, action, entity_type, entity_id, details, created_at
		 FROM activity WHERE entity_type = ? AND entity_id = ? ORDER BY id`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.EntityType, &a.EntityID,
			&a.Details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
