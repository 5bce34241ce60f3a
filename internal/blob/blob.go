// Package blob selects and constructs the evidence file store. Other packages
// depend on the Store interface re-exported here and never on an infra
// implementation directly.
package blob

import (
	"context"

	"awardbook/internal/blob/core"
	fsstore "awardbook/internal/infra/blob/fs"
	memorystore "awardbook/internal/infra/blob/memory"
	s3store "awardbook/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a file write.
	PutOptions = core.PutOptions
	// Info describes stored file metadata.
	Info = core.Info
	// Store is the interface for evidence storage backends.
	Store = core.Store
	// S3Config configures the S3 driver.
	S3Config = s3store.Config
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound = core.ErrNotFound
	ErrExists   = core.ErrExists
)

// NewFilesystem returns a store rooted at dir.
func NewFilesystem(dir string) (Store, error) { return fsstore.New(dir) }

// NewMemory returns an in-memory store suitable for tests.
func NewMemory() Store { return memorystore.New() }

// NewS3 constructs an S3-backed store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return s3store.New(ctx, cfg) }

// NewFakeS3 returns an S3 store talking to an in-process fake endpoint.
func NewFakeS3(bucket string) Store { return s3store.NewFake(bucket) }

// Exists reports whether key is present in s.
func Exists(ctx context.Context, s Store, key string) (bool, error) { return core.Exists(ctx, s, key) }
