package records

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"awardbook/internal/flatfile"
	"awardbook/internal/validation"
)

func TestAddRejectsDuplicateKey(t *testing.T) {
	tbl := NewTable(CredentialSchema)
	if _, err := tbl.AddFields("alice", "hash", "1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := tbl.AddFields("alice", "other", "2")
	if !IsKeyError(err, DuplicateKey) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("row count changed: %d", tbl.Len())
	}
}

func TestAddFieldsValidates(t *testing.T) {
	tbl := NewTable(CredentialSchema)
	if _, err := tbl.AddFields("a", "hash", "1"); !validation.IsKind(err, validation.LengthOutOfRange) {
		t.Fatalf("expected short username to fail, got %v", err)
	}
	if _, err := tbl.AddFields("alice", "hash", "x"); !validation.IsKind(err, validation.NotAnInteger) {
		t.Fatalf("expected bad id to fail, got %v", err)
	}
	var fe *flatfile.FormatError
	if _, err := tbl.AddFields("alice", "hash"); !errors.As(err, &fe) {
		t.Fatalf("expected field count error, got %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("invalid rows inserted")
	}
}

func TestDeleteAndMustGet(t *testing.T) {
	tbl := NewTable(StaffSchema)
	if _, err := tbl.AddFields("boss", "hash", "Head Teacher"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tbl.Delete("nobody"); !IsKeyError(err, UnknownKey) {
		t.Fatalf("expected unknown key, got %v", err)
	}
	if err := tbl.Delete("boss"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := tbl.MustGet("boss"); !IsKeyError(err, UnknownKey) {
		t.Fatalf("expected unknown key after delete, got %v", err)
	}
}

func TestNextIDReusesGaps(t *testing.T) {
	tbl := NewTable(SectionSchema)
	if got, _ := NextID(tbl); got != 1 {
		t.Fatalf("empty table next id = %d", got)
	}
	for _, id := range []int{1, 2, 3} {
		s, err := newSection(id, validProposal(Volunteering), validation.OffsetRange{}, fixedNow)
		if err != nil {
			t.Fatalf("section: %v", err)
		}
		if err := tbl.Add(s); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if got, _ := NextID(tbl); got != 4 {
		t.Fatalf("full table next id = %d", got)
	}
	_ = tbl.Delete(2)
	if got, _ := NextID(tbl); got != 2 {
		t.Fatalf("expected freed id 2, got %d", got)
	}
}

func TestNextIDReportsFullTable(t *testing.T) {
	tbl := NewTable(StudentSchema)
	for id := 1; id <= MaxID; id++ {
		s, err := NewStudent(id, "68362", "bronze", "9")
		if err != nil {
			t.Fatalf("student %d: %v", id, err)
		}
		if err := tbl.Add(s); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	if _, err := NextID(tbl); !errors.Is(err, ErrTableFull) {
		t.Fatalf("expected ErrTableFull, got %v", err)
	}
	_ = tbl.Delete(500)
	if got, err := NextID(tbl); err != nil || got != 500 {
		t.Fatalf("expected freed id 500, got %d (%v)", got, err)
	}
}

func TestSaveLoadPreservesOrder(t *testing.T) {
	tbl := NewTable(CredentialSchema)
	for i, name := range []string{"zed", "amy", "kim"} {
		if _, err := tbl.AddFields(name, "hash", itoa(i+1)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := tbl.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded := NewTable(CredentialSchema)
	if err := loaded.Load(&buf); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.Join(loaded.Keys(), ","); got != "zed,amy,kim" {
		t.Fatalf("order = %s", got)
	}
}

func TestStaffRoundTripKeepsFieldsExact(t *testing.T) {
	if _, err := NewStaff(" bob", "hash", "Al"); !validation.IsKind(err, validation.Unstorable) {
		t.Fatalf("expected padded username to be rejected, got %v", err)
	}
	if _, err := NewStaff("bob", "hash", "Al  "); !validation.IsKind(err, validation.Unstorable) {
		t.Fatalf("expected padded name to be rejected, got %v", err)
	}
	tbl := NewTable(StaffSchema)
	staff, err := NewStaff("bob", "hash", "Al Jolson")
	if err != nil {
		t.Fatalf("staff: %v", err)
	}
	if err := tbl.Add(staff); err != nil {
		t.Fatalf("add: %v", err)
	}
	var buf bytes.Buffer
	if err := tbl.Save(&buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded := NewTable(StaffSchema)
	if err := loaded.Load(&buf); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := loaded.Get("bob")
	if !ok || *got != *staff {
		t.Fatalf("round trip = %+v, want %+v", got, staff)
	}
}

func TestLoadIsAllOrNothing(t *testing.T) {
	tbl := NewTable(CredentialSchema)
	if _, err := tbl.AddFields("keep", "hash", "1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	good, _ := flatfile.EncodeRecord(CredentialSchema.Columns, []string{"new", "hash", "2"})
	dup, _ := flatfile.EncodeRecord(CredentialSchema.Columns, []string{"new", "hash", "3"})
	if err := tbl.Load(strings.NewReader(good + "\n" + dup + "\n")); !IsKeyError(err, DuplicateKey) {
		t.Fatalf("expected duplicate key on load, got %v", err)
	}
	if _, ok := tbl.Get("keep"); !ok || tbl.Len() != 1 {
		t.Fatalf("failed load modified the table")
	}
}

func TestSaveRejectsOverflow(t *testing.T) {
	tbl := NewTable(StaffSchema)
	if err := tbl.Add(&Staff{Username: "u1", PasswordHash: "h", Fullname: strings.Repeat("x", 31)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	var fe *flatfile.FormatError
	if err := tbl.Save(&bytes.Buffer{}); !errors.As(err, &fe) || fe.Column != "fullname" {
		t.Fatalf("expected overflow format error, got %v", err)
	}
}
