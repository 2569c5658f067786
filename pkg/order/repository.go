package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository stores completed orders; lines are kept as a JSON column.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps the handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts the order and fills in its id.
func (r *Repository) Save(ctx context.Context, order Order) (Order, error) {
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return Order{}, err
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	query := "INSERT INTO orders (supplier, method, contact, lines, message, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	result, err := r.db.ExecContext(ctx, query, order.Supplier, order.Method, order.Contact, string(lines), order.Message, order.CreatedAt.UnixMilli())
	if err != nil {
		return Order{}, fmt.Errorf("insert order for %s: %w", order.Supplier, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Order{}, err
	}
	order.ID = id
	return order, nil
}

// List returns stored orders, newest first.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	query := "SELECT id, supplier, method, contact, lines, message, created_at FROM orders ORDER BY id DESC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var (
			order     Order
			linesData string
			createdAt int64
		)
		if err := rows.Scan(&order.ID, &order.Supplier, &order.Method, &order.Contact, &linesData, &order.Message, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(linesData), &order.Lines); err != nil {
			return nil, fmt.Errorf("decode lines of order %d: %w", order.ID, err)
		}
		order.CreatedAt = time.UnixMilli(createdAt).UTC()
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
