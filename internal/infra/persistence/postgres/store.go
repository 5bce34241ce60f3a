// Package postgres keeps table snapshots in a Postgres table so several
// machines can share one set of records.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/jmoiron/sqlx"

	"awardbook/internal/records"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/awardbook?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists each table file as a (name, payload) row.
type Store struct {
	db  *sqlx.DB
	mu  sync.Mutex
	dsn string
}

// NewStore connects using dsn (falls back to defaultDSN) and ensures the
// snapshot table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	raw, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db := sqlx.NewDb(raw, defaultDriver)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureSnapshotTable(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db, dsn: dsn}, nil
}

func ensureSnapshotTable(ctx context.Context, db *sqlx.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS table_snapshots (
		name TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure snapshot table: %w", err)
	}
	return nil
}

// Location names the database without credentials.
func (s *Store) Location() string { return "postgres table_snapshots" }

// DB exposes the underlying handle for integration testing hooks.
func (s *Store) DB() *sqlx.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var found string
	err := s.db.GetContext(ctx, &found, `SELECT name FROM table_snapshots WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM table_snapshots WHERE name = $1`, name)
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
func (s *Store) WriteAll(ctx context.Context, files []records.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, f := range files {
		data := f.Data
		if data == nil {
			data = []byte{}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO table_snapshots(name,payload) VALUES($1,$2) ON CONFLICT(name) DO UPDATE SET payload=EXCLUDED.payload`, f.Name, data); err != nil {
			return fmt.Errorf("upsert %s: %w", f.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
