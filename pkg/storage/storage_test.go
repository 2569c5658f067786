package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

const (
	insertMaterial = "INSERT INTO materials (name, current_qty, threshold_qty, unit, supplier, daily_use, ordered, category, note) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	selectMaterial = "SELECT id, name, current_qty, threshold_qty, unit, supplier, daily_use, ordered, category, note FROM materials ORDER BY id"
)

type row struct {
	id                       int64
	name, current, threshold string
	unit, supplier, dailyUse string
	ordered                  bool
	category, note           string
}

func listRows(t *testing.T, db *sql.DB) []row {
	t.Helper()
	rows, err := db.QueryContext(context.Background(), selectMaterial)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer rows.Close()
	var out []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.name, &r.current, &r.threshold, &r.unit, &r.supplier, &r.dailyUse, &r.ordered, &r.category, &r.note); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return out
}

func TestOpenUnknownType(t *testing.T) {
	_, cleanup, err := Open(context.Background(), Options{Type: "mongo"})
	defer cleanup()
	if err == nil || !strings.Contains(err.Error(), "unsupported db type") {
		t.Fatalf("Expected unsupported db type error, got %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	tests := []struct {
		name string
		opts func(dir string) Options
	}{
		{"memory snapshot", func(dir string) Options {
			return Options{Type: TypeMemory, Path: filepath.Join(dir, "state.json")}
		}},
		{"sqlite", func(dir string) Options {
			return Options{Type: TypeSQLite, Path: filepath.Join(dir, "cafestock.db")}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			opts := tc.opts(t.TempDir())

			db, cleanup, err := Open(ctx, opts)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if _, err := db.ExecContext(ctx, insertMaterial, "卵", "0.5", "1", "パック", "スーパー", "0.25", false, "フード", "10個入り"); err != nil {
				t.Fatalf("insert: %v", err)
			}
			cleanup()

			db, cleanup, err = Open(ctx, opts)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer cleanup()

			rows := listRows(t, db)
			if len(rows) != 1 {
				t.Fatalf("Expected 1 row after reopening, got %d", len(rows))
			}
			want := row{id: 1, name: "卵", current: "0.5", threshold: "1", unit: "パック", supplier: "スーパー", dailyUse: "0.25", category: "フード", note: "10個入り"}
			if rows[0] != want {
				t.Errorf("Expected %+v, got %+v", want, rows[0])
			}

			res, err := db.ExecContext(ctx, insertMaterial, "牛乳", "2", "1", "本", "スーパー", "1", false, "ドリンク", "")
			if err != nil {
				t.Fatalf("insert after reopen: %v", err)
			}
			if id, _ := res.LastInsertId(); id != 2 {
				t.Errorf("ids must continue after reopen, got %d", id)
			}
		})
	}
}

func TestMemoryWithoutPathForgets(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := Open(ctx, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.ExecContext(ctx, insertMaterial, "卵", "1", "1", "パック", "", "0", false, "", ""); err != nil {
		t.Fatalf("insert: %v", err)
	}
	cleanup()

	db, cleanup, err = Open(ctx, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer cleanup()
	if rows := listRows(t, db); len(rows) != 0 {
		t.Errorf("a fresh memory store should be empty, got %d rows", len(rows))
	}
}

func TestSQLiteMigrationsRunOnce(t *testing.T) {
	ctx := context.Background()
	opts := Options{Type: TypeSQLite, Path: filepath.Join(t.TempDir(), "cafestock.db")}
	for i := 0; i < 2; i++ {
		db, cleanup, err := Open(ctx, opts)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		var applied int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		cleanup()
		if applied != 3 {
			t.Errorf("Expected 3 recorded migrations, got %d", applied)
		}
	}
}
