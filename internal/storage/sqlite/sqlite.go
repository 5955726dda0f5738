// Package sqlite implements the storage contracts on SQLite.
package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/combitest/combinatorial/manager"
	"github.com/example/combitest/internal/storage"
)

// Storage implements storage.ResultStore and storage.SessionStore.
type Storage struct {
	db *sql.DB
}

var (
	_ storage.ResultStore  = (*Storage)(nil)
	_ storage.SessionStore = (*Storage)(nil)
)

// New opens the database at path. Call Migrate before first use.
func New(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, err
	}

	// One writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Storage{db: db}, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Migrate creates the schema.
func (s *Storage) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.db)
}

// Results returns the result cache of namespace.
func (s *Storage) Results(namespace string) manager.ResultCache {
	return &resultCache{db: s.db, namespace: namespace}
}
