package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/campusfound/internal/model"
)

// CreateCategory creates a new item category.
func CreateCategory(ctx context.Context, q Querier, name string) (*model.Category, error) {
	result, err := q.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting category id: %w", err)
	}
	return GetCategory(ctx, q, id)
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, q Querier, id int64) (*model.Category, error) {
	c := &model.Category{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, q Querier) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateLocation creates a new campus location.
func CreateLocation(ctx context.Context, q Querier, name string) (*model.Location, error) {
	result, err := q.ExecContext(ctx, `INSERT INTO locations (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating location: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting location id: %w", err)
	}
	return GetLocation(ctx, q, id)
}

// GetLocation returns a location by ID.
func GetLocation(ctx context.Context, q Querier, id int64) (*model.Location, error) {
	l := &model.Location{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM locations WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return l, nil
}

// ListLocations returns all locations ordered by name.
func ListLocations(ctx context.Context, q Querier) ([]model.Location, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, created_at FROM locations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}
