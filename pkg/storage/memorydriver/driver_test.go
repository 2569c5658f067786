package memorydriver

import (
	"context"
	"database/sql"
	"testing"
)

func openDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	name, cleanup, err := Register(path)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		cleanup()
	})
	return db
}

func TestUpdateMissingRowAffectsNothing(t *testing.T) {
	db := openDB(t, "")
	res, err := db.ExecContext(context.Background(), "UPDATE materials SET current_qty = ?, ordered = ? WHERE id = ?", "1", false, 7)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 0 {
		t.Errorf("Expected 0 affected rows, got %d", n)
	}
}

func TestOrdersListNewestFirst(t *testing.T) {
	db := openDB(t, "")
	ctx := context.Background()
	for _, supplier := range []string{"A", "B", "C"} {
		if _, err := db.ExecContext(ctx,
			"INSERT INTO orders (supplier, method, contact, lines, message, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			supplier, "", "", "[]", "msg", int64(1700000000000)); err != nil {
			t.Fatalf("insert %s: %v", supplier, err)
		}
	}
	rows, err := db.QueryContext(ctx, "SELECT id, supplier, method, contact, lines, message, created_at FROM orders ORDER BY id DESC")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer rows.Close()
	var got []string
	for rows.Next() {
		var (
			id                                  int64
			supplier, method, contact, lines, m string
			createdAt                           int64
		)
		if err := rows.Scan(&id, &supplier, &method, &contact, &lines, &m, &createdAt); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, supplier)
	}
	if len(got) != 3 || got[0] != "C" || got[2] != "A" {
		t.Errorf("Expected C, B, A, got %v", got)
	}
}

func TestUnsupportedStatement(t *testing.T) {
	db := openDB(t, "")
	if _, err := db.ExecContext(context.Background(), "DELETE FROM materials"); err == nil {
		t.Error("Expected an error for an unsupported statement")
	}
}

func TestSchemaStatementsAreAccepted(t *testing.T) {
	db := openDB(t, "")
	if _, err := db.ExecContext(context.Background(), "CREATE TABLE IF NOT EXISTS materials (id INTEGER)"); err != nil {
		t.Errorf("schema statements should be no-ops, got %v", err)
	}
}
