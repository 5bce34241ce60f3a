package records

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"awardbook/internal/blob/core"
	"awardbook/internal/logging"
)

// FileExt is appended to every table file name.
const FileExt = ".txt"

// TableStore is the part of a table the database persists.
type TableStore interface {
	Name() string
	Len() int
	Save(w io.Writer) error
	stage(r io.Reader) (func(), error)
}

// Database groups every table. Tables are loaded and saved together.
type Database struct {
	Credentials *Table[string, *Credential]
	Students    *Table[int, *Student]
	Sections    *Table[int, *Section]
	Resources   *ResourceTable
	Staff       *Table[string, *Staff]

	backend  Backend
	registry []TableStore
	log      logging.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*Database)

// WithLogger sets the logger used for load and save events.
func WithLogger(l logging.Logger) DatabaseOption {
	return func(db *Database) {
		if l != nil {
			db.log = l
		}
	}
}

// NewDatabase returns an empty database persisted to backend, with
// evidence files kept in files.
func NewDatabase(backend Backend, files core.Store, opts ...DatabaseOption) *Database {
	db := &Database{
		Credentials: NewTable(CredentialSchema),
		Students:    NewTable(StudentSchema),
		Sections:    NewTable(SectionSchema),
		Resources:   NewResourceTable(files),
		Staff:       NewTable(StaffSchema),
		backend:     backend,
		log:         logging.Noop(),
	}
	db.registry = []TableStore{db.Credentials, db.Students, db.Sections, db.Resources, db.Staff}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Tables returns the registry in load order.
func (db *Database) Tables() []TableStore {
	return append([]TableStore(nil), db.registry...)
}

// Table looks a table up by name.
func (db *Database) Table(name string) (TableStore, error) {
	for _, t := range db.registry {
		if t.Name() == name {
			return t, nil
		}
	}
	return nil, &KeyError{Kind: UnknownTable, Table: name}
}

// Location is where the backend keeps the table files.
func (db *Database) Location() string { return db.backend.Location() }

// FileName is the stored file name of table under suffix.
func FileName(table, suffix string) string { return table + suffix + FileExt }

// Load replaces every table with the stored snapshot named by suffix. If a
// file is missing or any record fails to decode, no table changes.
func (db *Database) Load(ctx context.Context, suffix string) error {
	if err := db.LoadFrom(ctx, db.backend, suffix); err != nil {
		return err
	}
	db.log.Info("tables loaded", "location", db.Location(), "suffix", suffix,
		"students", db.Students.Len(), "sections", db.Sections.Len(), "resources", db.Resources.Len())
	return nil
}

// LoadFrom is Load against another backend.
func (db *Database) LoadFrom(ctx context.Context, backend Backend, suffix string) error {
	var missing []string
	for _, t := range db.registry {
		name := FileName(t.Name(), suffix)
		ok, err := backend.Exists(ctx, name)
		if err != nil {
			return fmt.Errorf("check %s: %w", name, err)
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingTablesError{Location: backend.Location(), Files: missing}
	}
	commits := make([]func(), 0, len(db.registry))
	for _, t := range db.registry {
		name := FileName(t.Name(), suffix)
		data, err := backend.Read(ctx, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		commit, err := t.stage(bytes.NewReader(data))
		if err != nil {
			return err
		}
		commits = append(commits, commit)
	}
	for _, commit := range commits {
		commit()
	}
	return nil
}

// Save writes every table under suffix. All tables are encoded before any
// file is written.
func (db *Database) Save(ctx context.Context, suffix string) error {
	if err := db.SaveTo(ctx, db.backend, suffix); err != nil {
		return err
	}
	db.log.Debug("tables saved", "location", db.Location(), "suffix", suffix)
	return nil
}

// SaveTo is Save against another backend.
func (db *Database) SaveTo(ctx context.Context, backend Backend, suffix string) error {
	files := make([]File, len(db.registry))
	for i, t := range db.registry {
		var buf bytes.Buffer
		if err := t.Save(&buf); err != nil {
			return err
		}
		files[i] = File{Name: FileName(t.Name(), suffix), Data: buf.Bytes()}
	}
	if bw, ok := backend.(BatchWriter); ok {
		if err := bw.WriteAll(ctx, files); err != nil {
			return fmt.Errorf("write tables: %w", err)
		}
	} else {
		for _, f := range files {
			if err := backend.Write(ctx, f.Name, f.Data); err != nil {
				return fmt.Errorf("write %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

// UsernameFor returns the login name of studentID.
func (db *Database) UsernameFor(studentID int) (string, bool) {
	c, ok := db.Credentials.Find(func(c *Credential) bool { return c.StudentID == studentID })
	if !ok {
		return "", false
	}
	return c.Username, true
}

// SectionsOf returns the started sections of a student keyed by type.
func (db *Database) SectionsOf(s *Student) map[SectionType]*Section {
	out := make(map[SectionType]*Section)
	for _, t := range SectionTypes {
		if id, ok := s.SectionID(t); ok {
			if sec, ok := db.Sections.Get(id); ok {
				out[t] = sec
			}
		}
	}
	return out
}
