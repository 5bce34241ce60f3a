package core

import (
	"context"
	"path/filepath"
	"testing"

	"awardbook/internal/blob"
)

func TestOpenBackendDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cases := []Config{
		{StorageDriver: StorageDir, DataDir: filepath.Join(dir, "tables")},
		{StorageDriver: StorageMemory},
		{StorageDriver: StorageSQLite, SQLitePath: filepath.Join(dir, "awardbook.db")},
	}
	for _, cfg := range cases {
		t.Run(string(cfg.StorageDriver), func(t *testing.T) {
			backend, err := OpenBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("open %s: %v", cfg.StorageDriver, err)
			}
			svc := NewService(backend, blob.NewMemory())
			if err := svc.Open(ctx); err != nil {
				t.Fatalf("open service: %v", err)
			}
			if _, _, err := svc.CreateStudentAccount(ctx, studentForm("alice")); err != nil {
				t.Fatalf("create: %v", err)
			}
			reopened := NewService(backend, blob.NewMemory())
			if err := reopened.Load(ctx); err != nil {
				t.Fatalf("load: %v", err)
			}
			if rows, _ := reopened.Overview(ctx); len(rows) != 1 {
				t.Fatalf("expected one student after reload, got %v", rows)
			}
		})
	}
	if _, err := OpenBackend(ctx, Config{StorageDriver: "floppy"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestOpenFiles(t *testing.T) {
	ctx := context.Background()
	store, err := OpenFiles(ctx, Config{BlobDriver: "fs", BlobRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != blob.DriverFilesystem {
		t.Fatalf("driver = %s", store.Driver())
	}
	store, err = OpenFiles(ctx, Config{BlobDriver: "memory"})
	if err != nil || store.Driver() != blob.DriverMemory {
		t.Fatalf("open memory: %v %v", store, err)
	}
}
