package records

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrTableFull is returned by NextID when no id of IDWidth digits is free.
var ErrTableFull = errors.New("table is full")

// KeyErrorKind distinguishes structural key failures.
type KeyErrorKind int

const (
	// DuplicateKey reports an insert whose key is already present.
	DuplicateKey KeyErrorKind = iota + 1
	// UnknownKey reports a lookup or delete of an absent key.
	UnknownKey
	// UnknownTable reports a table name missing from the registry.
	UnknownTable
)

func (k KeyErrorKind) String() string {
	switch k {
	case DuplicateKey:
		return "duplicate key"
	case UnknownKey:
		return "unknown key"
	case UnknownTable:
		return "unknown table"
	}
	return fmt.Sprintf("key error %d", int(k))
}

// KeyError signals a data-integrity or programming problem rather than bad
// user input.
type KeyError struct {
	Kind  KeyErrorKind
	Table string
	Key   string
}

func (e *KeyError) Error() string {
	if e.Kind == UnknownTable {
		return fmt.Sprintf("unknown table %q", e.Table)
	}
	return fmt.Sprintf("%s: %s %q", e.Table, e.Kind, e.Key)
}

// IsKeyError reports whether err is a KeyError of kind.
func IsKeyError(err error, kind KeyErrorKind) bool {
	var kerr *KeyError
	return errors.As(err, &kerr) && kerr.Kind == kind
}

// MissingTablesError is returned by Database.Load when any expected table
// file is absent. Nothing is loaded in that case.
type MissingTablesError struct {
	Location string
	Files    []string
}

func (e *MissingTablesError) Error() string {
	return fmt.Sprintf("missing table files in %s: %s", e.Location, strings.Join(e.Files, ", "))
}

// Unwrap lets callers test for fs.ErrNotExist.
func (e *MissingTablesError) Unwrap() error { return fs.ErrNotExist }

// ErrWrongPhase is wrapped when a student transition is attempted from a
// phase that does not allow it.
var ErrWrongPhase = errors.New("student is in the wrong enrolment phase")
