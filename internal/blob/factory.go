package blob

import (
	"context"
	"fmt"
)

// Config selects and parameterizes a driver.
type Config struct {
	Driver Driver
	Root   string // filesystem root; keys resolve to Root/uploads/...
	S3     S3Config
}

// Open builds the store described by cfg. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return NewFilesystem(cfg.Root)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
