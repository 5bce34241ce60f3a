package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"awardbook/internal/infra/persistence/postgres/testutil"
	"awardbook/internal/records"
)

func newStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	s, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, conn
}

func TestNewStoreCreatesSnapshotTable(t *testing.T) {
	_, conn := newStubStore(t)
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS TABLE_SNAPSHOTS") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected snapshot DDL, got %v", conn.Execs)
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailExec = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://x"); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestWriteReadExists(t *testing.T) {
	ctx := context.Background()
	s, conn := newStubStore(t)
	if ok, err := s.Exists(ctx, "StaffTable.txt"); err != nil || ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if err := s.Write(ctx, "StaffTable.txt", []byte("v1")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(ctx, "StaffTable.txt", []byte("v2")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := len(conn.Tables["table_snapshots"]); got != 1 {
		t.Fatalf("upsert kept %d rows", got)
	}
	if ok, err := s.Exists(ctx, "StaffTable.txt"); err != nil || !ok {
		t.Fatalf("Exists after write = %v, %v", ok, err)
	}
	got, err := s.Read(ctx, "StaffTable.txt")
	if err != nil || !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("Read = %q, %v", got, err)
	}
	if _, err := s.Read(ctx, "Other.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
}

func TestWriteAllRollsBackOnCommitFailure(t *testing.T) {
	s, conn := newStubStore(t)
	conn.FailCommit = true
	err := s.WriteAll(context.Background(), []records.File{{Name: "a.txt"}, {Name: "b.txt"}})
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestStoreBacksDatabase(t *testing.T) {
	ctx := context.Background()
	s, _ := newStubStore(t)
	db := records.NewDatabase(s, nil)
	cred, err := records.NewCredential("pupil", "hash", 1)
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	if err := db.Credentials.Add(cred); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := db.Save(ctx, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded := records.NewDatabase(s, nil)
	if err := loaded.Load(ctx, ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := loaded.Credentials.Get("pupil"); !ok {
		t.Fatalf("credential lost")
	}
}
