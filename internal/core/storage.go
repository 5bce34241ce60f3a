package core

import (
	"context"
	"fmt"

	"awardbook/internal/blob"
	"awardbook/internal/infra/persistence/dir"
	"awardbook/internal/infra/persistence/memory"
	"awardbook/internal/infra/persistence/postgres"
	"awardbook/internal/infra/persistence/sqlite"
	"awardbook/internal/records"
)

// StorageDriver identifies a table snapshot backend.
type StorageDriver string

const (
	StorageDir      StorageDriver = "dir"      // flat files in a directory (default)
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenBackend builds the snapshot backend selected by cfg.
func OpenBackend(ctx context.Context, cfg Config) (records.Backend, error) {
	switch cfg.StorageDriver {
	case StorageDir, "":
		return dir.NewStore(cfg.DataDir)
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case StoragePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.StorageDriver)
	}
}

// OpenFiles builds the evidence store selected by cfg.
func OpenFiles(ctx context.Context, cfg Config) (blob.Store, error) {
	return blob.Open(ctx, blob.Config{
		Driver: blob.Driver(cfg.BlobDriver),
		Root:   cfg.BlobRoot,
		S3: blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		},
	})
}
