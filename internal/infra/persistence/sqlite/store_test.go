package sqlite

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"awardbook/internal/records"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "db", "awardbook.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreUpsertAndRead(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	if ok, err := s.Exists(ctx, "StudentTable.txt"); err != nil || ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if err := s.Write(ctx, "StudentTable.txt", []byte("one")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(ctx, "StudentTable.txt", []byte("two")); err != nil {
		t.Fatalf("Write again: %v", err)
	}
	got, err := s.Read(ctx, "StudentTable.txt")
	if err != nil || string(got) != "two" {
		t.Fatalf("Read = %q, %v", got, err)
	}
	if _, err := s.Read(ctx, "Nope.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
}

func TestStoreEmptyTableRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	db := records.NewDatabase(s, nil)
	if err := db.Save(ctx, " (test students)"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	var n int
	if err := s.DB().Get(&n, `SELECT COUNT(*) FROM table_snapshots`); err != nil || n != 5 {
		t.Fatalf("rows = %d, %v", n, err)
	}
	if err := records.NewDatabase(s, nil).Load(ctx, " (test students)"); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
