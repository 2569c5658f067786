package inventory

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository persists items through database/sql so the memory and sqlite backends stay swappable.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps the handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts a new item and returns it with its generated id.
func (r *Repository) Save(ctx context.Context, item Item) (Item, error) {
	query := "INSERT INTO materials (name, current_qty, threshold_qty, unit, supplier, daily_use, ordered, category, note) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	result, err := r.db.ExecContext(ctx, query, item.Name, item.Current, item.Threshold, item.Unit, item.Supplier, item.DailyUse, item.Ordered, item.Category, item.Note)
	if err != nil {
		return Item{}, fmt.Errorf("insert material %s: %w", item.Name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Item{}, err
	}
	item.ID = id
	return item, nil
}

// List returns every item in insertion order.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	query := "SELECT id, name, current_qty, threshold_qty, unit, supplier, daily_use, ordered, category, note FROM materials ORDER BY id"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Current, &item.Threshold, &item.Unit, &item.Supplier, &item.DailyUse, &item.Ordered, &item.Category, &item.Note); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update writes the mutable columns (stock level and ordered flag).
func (r *Repository) Update(ctx context.Context, item Item) error {
	query := "UPDATE materials SET current_qty = ?, ordered = ? WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, item.Current, item.Ordered, item.ID)
	if err != nil {
		return fmt.Errorf("update material %d: %w", item.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
