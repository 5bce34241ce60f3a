// Package sqlite keeps table snapshots as rows of a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"awardbook/internal/records"
)

// DefaultPath is used when no database file is configured.
const DefaultPath = "data/awardbook.db"

// Store persists each table file as a (name, payload) row.
type Store struct {
	db   *sqlx.DB
	mu   sync.Mutex
	path string
}

// NewStore opens or creates the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS table_snapshots (
		name TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Location is the database file path.
func (s *Store) Location() string { return s.path }

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sqlx.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM table_snapshots WHERE name = ?`, name); err != nil {
		return false, fmt.Errorf("count %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM table_snapshots WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", name, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}
	return payload, nil
}

func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	return s.WriteAll(ctx, []records.File{{Name: name, Data: data}})
}

// WriteAll upserts every file in one transaction.
func (s *Store) WriteAll(ctx context.Context, files []records.File) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, f := range files {
		data := f.Data
		if data == nil {
			data = []byte{}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO table_snapshots(name,payload) VALUES(?,?) ON CONFLICT(name) DO UPDATE SET payload=excluded.payload`, f.Name, data); err != nil {
			return fmt.Errorf("upsert %s: %w", f.Name, err)
		}
	}
	return tx.Commit()
}
