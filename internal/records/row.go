// Package records implements the typed tables behind the award scheme: rows
// validate themselves on construction, tables enforce key uniqueness and
// encode to fixed-width flat files, and Database groups every table into one
// snapshot that loads all-or-nothing.
package records

import (
	"strconv"

	"awardbook/internal/flatfile"
)

// IDWidth is the stored width of every integer key and foreign key.
const IDWidth = 5

// MaxID is the largest id that fits in IDWidth digits.
const MaxID = 99999

// Row is a record stored in a Table. The key must never change once the row
// has been inserted.
type Row[K comparable] interface {
	Key() K
	// Encode returns the stored field values in column order.
	Encode() []string
}

// Schema describes how a table's rows are laid out and decoded.
type Schema[K comparable, R Row[K]] struct {
	Name    string
	Columns []flatfile.Column
	// Decode builds a validated row from trimmed stored fields.
	Decode func(fields []string) (R, error)
}

func itoa(n int) string { return strconv.Itoa(n) }

// optionalID renders a zero foreign key as an empty field.
func optionalID(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
