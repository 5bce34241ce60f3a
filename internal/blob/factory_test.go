package blob

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		cfg  Config
		want Driver
	}{
		{Config{Root: t.TempDir()}, DriverFilesystem},
		{Config{Driver: DriverMemory}, DriverMemory},
		{Config{Driver: DriverS3, S3: S3Config{Bucket: "evidence", Region: "eu-west-2", AccessKeyID: "k", SecretAccessKey: "s"}}, DriverS3},
	}
	for _, tc := range cases {
		store, err := Open(ctx, tc.cfg)
		if err != nil {
			t.Fatalf("Open(%s): %v", tc.cfg.Driver, err)
		}
		if store.Driver() != tc.want {
			t.Fatalf("driver = %s want %s", store.Driver(), tc.want)
		}
	}
	if _, err := Open(ctx, Config{Driver: "ftp"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestStoresShareSemantics(t *testing.T) {
	ctx := context.Background()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	for _, store := range []Store{fsStore, NewMemory(), NewFakeS3("evidence")} {
		key := "uploads/student/id-1/a.txt"
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("a")), PutOptions{}); err != nil {
			t.Fatalf("%s put: %v", store.Driver(), err)
		}
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("b")), PutOptions{}); !errors.Is(err, ErrExists) {
			t.Fatalf("%s duplicate put: %v", store.Driver(), err)
		}
		if _, err := store.Head(ctx, "uploads/student/id-1/missing.txt"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s head missing: %v", store.Driver(), err)
		}
	}
}
