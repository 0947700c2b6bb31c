package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/campusfound/internal/model"
)

// NewLostItem holds the fields a reporter supplies for a lost item.
type NewLostItem struct {
	UserID           int64
	CategoryID       int64
	LocationID       *int64
	Title            string
	Description      string
	UniqueIdentifier string
	LostDate         time.Time
	LastSeenDate     *time.Time
}

// NewFoundItem holds the fields a finder supplies for a found item.
type NewFoundItem struct {
	UserID           int64
	CategoryID       int64
	LocationID       *int64
	Title            string
	Description      string
	UniqueIdentifier string
	FoundDate        time.Time
}

const lostItemColumns = `id, user_id, category_id, location_id, title, description, unique_identifier,
	lost_date, last_seen_date, status, created_at, updated_at`

const foundItemColumns = `id, user_id, category_id, location_id, title, description, unique_identifier,
	found_date, status, resolved_at, resolved_by, resolution_notes, created_at, updated_at`

func scanLostItem(row interface{ Scan(...any) error }) (*model.LostItem, error) {
	it := &model.LostItem{}
	err := row.Scan(&it.ID, &it.UserID, &it.CategoryID, &it.LocationID, &it.Title, &it.Description,
		&it.UniqueIdentifier, &it.LostDate, &it.LastSeenDate, &it.Status, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func scanFoundItem(row interface{ Scan(...any) error }) (*model.FoundItem, error) {
	it := &model.FoundItem{}
	err := row.Scan(&it.ID, &it.UserID, &it.CategoryID, &it.LocationID, &it.Title, &it.Description,
		&it.UniqueIdentifier, &it.FoundDate, &it.Status, &it.ResolvedAt, &it.ResolvedBy,
		&it.ResolutionNotes, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// CreateLostItem records a lost item report in pending status.
func CreateLostItem(ctx context.Context, q Querier, in NewLostItem) (*model.LostItem, error) {
	var lastSeen *time.Time
	if in.LastSeenDate != nil {
		t := in.LastSeenDate.UTC()
		lastSeen = &t
	}
	result, err := q.ExecContext(ctx,
		`INSERT INTO lost_items (user_id, category_id, location_id, title, description,
		                         unique_identifier, lost_date, last_seen_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.CategoryID, in.LocationID, in.Title, in.Description,
		in.UniqueIdentifier, in.LostDate.UTC(), lastSeen,
	)
	if err != nil {
		return nil, fmt.Errorf("creating lost item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting lost item id: %w", err)
	}
	return GetLostItem(ctx, q, id)
}

// CreateFoundItem records a found item report in pending status.
func CreateFoundItem(ctx context.Context, q Querier, in NewFoundItem) (*model.FoundItem, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO found_items (user_id, category_id, location_id, title, description,
		                          unique_identifier, found_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.CategoryID, in.LocationID, in.Title, in.Description,
		in.UniqueIdentifier, in.FoundDate.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating found item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting found item id: %w", err)
	}
	return GetFoundItem(ctx, q, id)
}

// GetLostItem returns a lost item by ID.
func GetLostItem(ctx context.Context, q Querier, id int64) (*model.LostItem, error) {
	it, err := scanLostItem(q.QueryRowContext(ctx,
		`SELECT `+lostItemColumns+` FROM lost_items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting lost item: %w", err)
	}
	return it, nil
}

// GetFoundItem returns a found item by ID.
func GetFoundItem(ctx context.Context, q Querier, id int64) (*model.FoundItem, error) {
	it, err := scanFoundItem(q.QueryRowContext(ctx,
		`SELECT `+foundItemColumns+` FROM found_items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting found item: %w", err)
	}
	return it, nil
}

// ListLostItemsByStatus returns lost items in the given status ordered by ID.
func ListLostItemsByStatus(ctx context.Context, q Querier, status model.ItemStatus) ([]model.LostItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+lostItemColumns+` FROM lost_items WHERE status = ? ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("listing lost items: %w", err)
	}
	defer rows.Close()

	var items []model.LostItem
	for rows.Next() {
		it, err := scanLostItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lost item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ListFoundItemsByStatus returns found items in the given status ordered by ID.
func ListFoundItemsByStatus(ctx context.Context, q Querier, status model.ItemStatus) ([]model.FoundItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+foundItemColumns+` FROM found_items WHERE status = ? ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("listing found items: %w", err)
	}
	defer rows.Close()

	var items []model.FoundItem
	for rows.Next() {
		it, err := scanFoundItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning found item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ModerateItem sets the moderation status of a lost or found item. Items the
// claim workflow has taken over (claimed, resolved) are left untouched and
// false is returned, as it is when the item does not exist.
func ModerateItem(ctx context.Context, q Querier, side model.Side, id int64, status model.ItemStatus) (bool, error) {
	table := "lost_items"
	if side == model.SideFound {
		table = "found_items"
	}
	res, err := q.ExecContext(ctx,
		`UPDATE `+table+` SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status NOT IN ('claimed', 'resolved')`,
		status, id,
	)
	if err != nil {
		return false, fmt.Errorf("moderating %s item: %w", side, err)
	}
	n, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("moderating %s item: %w", side, err)
	}
	return n > 0, nil
}

// TransitionFoundItemStatus moves a found item from one status to another.
// It is a compare-and-set: it returns false when the item is not currently
// in from.
func TransitionFoundItemStatus(ctx context.Context, q Querier, id int64, from, to model.ItemStatus) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE found_items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("updating found item status: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("updating found item status: %w", err)
	}
	return n > 0, nil
}

// ResolveFoundItem marks a claimed item as handed over.
func ResolveFoundItem(ctx context.Context, q Querier, id, resolvedBy int64, notes string, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE found_items
		 SET status = 'resolved', resolved_at = ?, resolved_by = ?, resolution_notes = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'claimed'`,
		at.UTC(), resolvedBy, notes, id,
	)
	if err != nil {
		return false, fmt.Errorf("resolving found item: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("resolving found item: %w", err)
	}
	return n > 0, nil
}
