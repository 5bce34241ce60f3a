package records

import "context"

// Backend persists encoded table snapshots by file name, e.g.
// "StudentTable.txt". Implementations live under internal/infra/persistence.
type Backend interface {
	Exists(ctx context.Context, name string) (bool, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	// Location describes where snapshots are kept, for messages.
	Location() string
}

// BatchWriter is implemented by backends that can write every table file in
// one transaction. Database.Save prefers it when available.
type BatchWriter interface {
	WriteAll(ctx context.Context, files []File) error
}

// File is one named snapshot.
type File struct {
	Name string
	Data []byte
}
