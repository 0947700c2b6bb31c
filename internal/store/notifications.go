package store

import (
	"context"
	"fmt"

	"github.com/erazemk/campusfound/internal/model"
)

// InsertNotification queues an in-app notification for a user. Callers run
// it in the same transaction as the change it describes.
func InsertNotification(ctx context.Context, q Querier, n model.Notification) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, title, message, ref_type, ref_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Kind, n.Title, n.Message, n.RefType, n.RefID,
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(ctx context.Context, q Querier, userID int64, unreadOnly bool) ([]model.Notification, error) {
	query := `SELECT id, user_id, kind, title, message, ref_type, ref_id, read_at, created_at
	          FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY id DESC`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Message, &n.RefType,
			&n.RefID, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead marks one of the user's notifications as read.
// Returns false if the notification does not belong to the user.
func MarkNotificationRead(ctx context.Context, q Querier, id, userID int64) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, CURRENT_TIMESTAMP)
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	return conditional(res, err, "marking notification read")
}
