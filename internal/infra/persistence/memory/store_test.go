package memory

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"awardbook/internal/records"
)

func TestStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	buf := []byte("abc")
	if err := s.Write(ctx, "a.txt", buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf[0] = 'x'
	got, _ := s.Read(ctx, "a.txt")
	if string(got) != "abc" {
		t.Fatalf("stored data aliased caller buffer: %q", got)
	}
	if _, err := s.Read(ctx, "b.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
}

func TestStoreBacksDatabase(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	db := records.NewDatabase(s, nil)
	staff, err := records.NewStaff("head", "hash", "Head Teacher")
	if err != nil {
		t.Fatalf("NewStaff: %v", err)
	}
	if err := db.Staff.Add(staff); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := db.Save(ctx, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := len(s.Names()); got != 5 {
		t.Fatalf("expected 5 table files, got %d", got)
	}
	loaded := records.NewDatabase(s, nil)
	if err := loaded.Load(ctx, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := loaded.Staff.Get("head"); !ok {
		t.Fatalf("staff row lost")
	}
}
