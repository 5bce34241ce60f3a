package testutil

import (
	"context"
	"database/sql/driver"
	"io"
	"testing"
)

func TestStubUpsertAndFilteredSelect(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	insert := "INSERT INTO table_snapshots(name,payload) VALUES($1,$2) ON CONFLICT(name) DO UPDATE SET payload=EXCLUDED.payload"
	for _, v := range []struct{ name, payload string }{{"a", "1"}, {"b", "2"}, {"a", "3"}} {
		if _, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: v.name}, {Value: []byte(v.payload)}}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if got := len(conn.Tables["table_snapshots"]); got != 2 {
		t.Fatalf("expected upsert to keep 2 rows, got %d", got)
	}

	rows, err := conn.QueryContext(ctx, "SELECT payload FROM table_snapshots WHERE name = $1", []driver.NamedValue{{Value: "a"}})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	dest := make([]driver.Value, 1)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("next: %v", err)
	}
	if string(dest[0].([]byte)) != "3" {
		t.Fatalf("payload = %v", dest[0])
	}
	if err := rows.Next(dest); err != io.EOF {
		t.Fatalf("expected single row, got %v", err)
	}
}

func TestStubParseErrors(t *testing.T) {
	_, conn := NewStubDB()
	if _, err := conn.QueryContext(context.Background(), "UPDATE x", nil); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := conn.ExecContext(context.Background(), "INSERT INTO broken", nil); err == nil {
		t.Fatalf("expected insert parse error")
	}
}
