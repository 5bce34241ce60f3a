package records

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func populate(t *testing.T, db *Database) {
	t.Helper()
	s := approvedStudent(t, 1)
	sec, err := NewSection(1, validProposal(Volunteering), fixedNow)
	if err != nil {
		t.Fatalf("section: %v", err)
	}
	if err := s.LinkSection(Volunteering, sec.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	must(t, db.Students.Add(s))
	must(t, db.Sections.Add(sec))
	cred, err := NewCredential("ada", "hash", 1)
	must(t, err)
	must(t, db.Credentials.Add(cred))
	staff, err := NewStaff("boss", "hash", "Head Teacher")
	must(t, err)
	must(t, db.Staff.Add(staff))
	if _, err := db.Resources.AddStudentResources(context.Background(), 1, 1, []Upload{upload("log.txt", "day one")}, fixedNow); err != nil {
		t.Fatalf("resources: %v", err)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestDatabaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, backend := newTestDB(t)
	populate(t, db)
	if err := db.Save(ctx, " (test students)"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := strings.Join(backend.names(), "|"); !strings.Contains(got, "StudentTable (test students).txt") {
		t.Fatalf("files = %s", got)
	}
	loaded := NewDatabase(backend, db.Resources.Files())
	if err := loaded.Load(ctx, " (test students)"); err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, tbl := range loaded.Tables() {
		if tbl.Len() != db.Tables()[i].Len() {
			t.Fatalf("%s has %d rows, want %d", tbl.Name(), tbl.Len(), db.Tables()[i].Len())
		}
	}
	if name, ok := loaded.UsernameFor(1); !ok || name != "ada" {
		t.Fatalf("UsernameFor = %q %v", name, ok)
	}
	if secs := loaded.SectionsOf(loaded.Students.Rows()[0]); secs[Volunteering] == nil {
		t.Fatalf("section link lost")
	}
}

func TestLoadMissingFilesChangesNothing(t *testing.T) {
	ctx := context.Background()
	db, backend := newTestDB(t)
	populate(t, db)
	must(t, db.Save(ctx, ""))
	delete(backend.files, "StaffTable.txt")

	fresh := NewDatabase(backend, db.Resources.Files())
	err := fresh.Load(ctx, "")
	var missing *MissingTablesError
	if !errors.As(err, &missing) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected missing tables error, got %v", err)
	}
	if len(missing.Files) != 1 || missing.Files[0] != "StaffTable.txt" {
		t.Fatalf("missing = %v", missing.Files)
	}
	if fresh.Students.Len() != 0 {
		t.Fatalf("tables loaded despite missing file")
	}
}

func TestLoadMalformedTableLeavesAllTablesUnchanged(t *testing.T) {
	ctx := context.Background()
	db, backend := newTestDB(t)
	populate(t, db)
	must(t, db.Save(ctx, ""))
	backend.files["StaffTable.txt"] = []byte("garbage line\n")

	target, _ := newTestDB(t)
	cred, _ := NewCredential("old", "hash", 9)
	must(t, target.Credentials.Add(cred))
	target.backend = backend
	if err := target.Load(ctx, ""); err == nil {
		t.Fatalf("expected malformed load to fail")
	}
	if _, ok := target.Credentials.Get("old"); !ok || target.Students.Len() != 0 {
		t.Fatalf("partial load leaked into tables")
	}
}

func TestTableLookup(t *testing.T) {
	db, _ := newTestDB(t)
	if tbl, err := db.Table("SectionTable"); err != nil || tbl.Name() != "SectionTable" {
		t.Fatalf("lookup: %v", err)
	}
	if _, err := db.Table("Nope"); !IsKeyError(err, UnknownTable) {
		t.Fatalf("expected unknown table, got %v", err)
	}
	var names []string
	for _, tbl := range db.Tables() {
		names = append(names, tbl.Name())
	}
	if got := strings.Join(names, ","); got != "StudentLoginTable,StudentTable,SectionTable,ResourceTable,StaffTable" {
		t.Fatalf("registry order = %s", got)
	}
}
