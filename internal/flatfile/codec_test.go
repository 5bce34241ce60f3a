package flatfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

var loginCols = []Column{{"username", 30}, {"password_hash", 128}, {"student_id", 5}}

func TestEncodeRecordPadsEachColumn(t *testing.T) {
	line, err := EncodeRecord(loginCols, []string{"alice", "hash", "7"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	parts := strings.Split(line, Separator)
	if len(parts) != 3 {
		t.Fatalf("expected 3 fields, got %d (%q)", len(parts), line)
	}
	for i, col := range loginCols {
		if len(parts[i]) != col.Width {
			t.Fatalf("column %s width %d, want %d", col.Name, len(parts[i]), col.Width)
		}
	}
	if strings.HasSuffix(line, Separator) {
		t.Fatalf("last field must not carry a separator")
	}
}

func TestEncodeRecordRejectsOverflowAndSeparators(t *testing.T) {
	cases := map[string][]string{
		"overflow":   {strings.Repeat("a", 31), "h", "1"},
		"separator":  {`bad\%sname`, "h", "1"},
		"newline":    {"bad\nname", "h", "1"},
		"wrong size": {"alice", "h"},
	}
	for name, values := range cases {
		_, err := EncodeRecord(loginCols, values)
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("%s: expected *FormatError, got %v", name, err)
		}
	}
}

func TestDecodeRecordTrimsAndToleratesTrailingSeparator(t *testing.T) {
	want := []string{"alice", "hash", ""}
	line, err := EncodeRecord(loginCols, want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, in := range []string{line, line + Separator, line + Separator + "  \n"} {
		got, err := DecodeRecord(loginCols, in)
		if err != nil {
			t.Fatalf("decode %q: %v", in, err)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("field %d = %q want %q", i, got[i], want[i])
			}
		}
	}
	if _, err := DecodeRecord(loginCols, "only"+Separator+"two"); err == nil {
		t.Fatalf("expected field count error")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	records := [][]string{
		{"alice", "h1", "1"},
		{"bob", "h2", "2"},
	}
	var buf bytes.Buffer
	if err := Write(&buf, loginCols, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf.WriteString("\n")
	got, err := Read(&buf, loginCols)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[1][0] != "bob" || got[1][2] != "2" {
		t.Fatalf("unexpected records: %v", got)
	}
}

func TestReadReportsLineNumber(t *testing.T) {
	good, _ := EncodeRecord(loginCols, []string{"alice", "h", "1"})
	_, err := Read(strings.NewReader(good+"\ngarbage\n"), loginCols)
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Line != 2 {
		t.Fatalf("expected line 2 format error, got %v", err)
	}
}
