// Package storage opens the database/sql handle the repositories run on.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"cafestock/pkg/storage/memorydriver"
	"cafestock/pkg/storage/migrations"
	"cafestock/pkg/storage/sqlitemigrate"

	_ "modernc.org/sqlite"
)

const (
	TypeMemory = "memory"
	TypeSQLite = "sqlite"
)

// DefaultSQLitePath is used when the sqlite backend is chosen without a path.
const DefaultSQLitePath = "cafestock.db"

// Options selects the backend. Path is the snapshot file for memory (empty
// keeps state in RAM only) and the database file for sqlite.
type Options struct {
	Type string
	Path string
}

// Open returns a ready, migrated handle and a cleanup func that closes it.
func Open(ctx context.Context, opts Options) (*sql.DB, func(), error) {
	switch strings.ToLower(strings.TrimSpace(opts.Type)) {
	case "", TypeMemory:
		return openMemory(ctx, opts.Path)
	case TypeSQLite:
		return openSQLite(ctx, opts.Path)
	default:
		return nil, func() {}, fmt.Errorf("unsupported db type %q (want %s or %s)", opts.Type, TypeMemory, TypeSQLite)
	}
}

func openMemory(ctx context.Context, snapshotPath string) (*sql.DB, func(), error) {
	driverName, cleanupDriver, err := memorydriver.Register(snapshotPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("register memory driver: %w", err)
	}
	db, err := sql.Open(driverName, "")
	if err != nil {
		cleanupDriver()
		return nil, func() {}, fmt.Errorf("open memory db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		cleanupDriver()
		return nil, func() {}, fmt.Errorf("ping memory db: %w", err)
	}
	cleanup := func() {
		db.Close()
		cleanupDriver()
	}
	return db, cleanup, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, func(), error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultSQLitePath
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, func() {}, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, db, migrations.FS, "."); err != nil {
		db.Close()
		return nil, func() {}, fmt.Errorf("run migrations: %w", err)
	}
	return db, func() { db.Close() }, nil
}
