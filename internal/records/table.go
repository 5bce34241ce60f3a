package records

import (
	"fmt"
	"io"

	"awardbook/internal/flatfile"
)

// Table is a keyed collection of one row type. Iteration follows insertion
// order so saved files are stable.
type Table[K comparable, R Row[K]] struct {
	schema Schema[K, R]
	rows   map[K]R
	order  []K
}

// NewTable returns an empty table for schema.
func NewTable[K comparable, R Row[K]](schema Schema[K, R]) *Table[K, R] {
	return &Table[K, R]{schema: schema, rows: make(map[K]R)}
}

func (t *Table[K, R]) Name() string               { return t.schema.Name }
func (t *Table[K, R]) Columns() []flatfile.Column { return t.schema.Columns }
func (t *Table[K, R]) Len() int                   { return len(t.rows) }

// Get returns the row stored under key.
func (t *Table[K, R]) Get(key K) (R, bool) {
	r, ok := t.rows[key]
	return r, ok
}

// MustGet returns the row under key or an UnknownKey error.
func (t *Table[K, R]) MustGet(key K) (R, error) {
	r, ok := t.rows[key]
	if !ok {
		return r, &KeyError{Kind: UnknownKey, Table: t.schema.Name, Key: fmt.Sprint(key)}
	}
	return r, nil
}

// Rows returns the rows in insertion order.
func (t *Table[K, R]) Rows() []R {
	out := make([]R, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.rows[k])
	}
	return out
}

// Keys returns the keys in insertion order.
func (t *Table[K, R]) Keys() []K {
	return append([]K(nil), t.order...)
}

// Find returns the first row, in insertion order, matching pred.
func (t *Table[K, R]) Find(pred func(R) bool) (R, bool) {
	for _, k := range t.order {
		if r := t.rows[k]; pred(r) {
			return r, true
		}
	}
	var zero R
	return zero, false
}

// Add inserts an already validated row.
func (t *Table[K, R]) Add(row R) error {
	key := row.Key()
	if _, exists := t.rows[key]; exists {
		return &KeyError{Kind: DuplicateKey, Table: t.schema.Name, Key: fmt.Sprint(key)}
	}
	t.rows[key] = row
	t.order = append(t.order, key)
	return nil
}

// AddFields decodes raw stored fields into a row, validating them, and
// inserts it. Validation errors are returned unchanged.
func (t *Table[K, R]) AddFields(fields ...string) (R, error) {
	if len(fields) != len(t.schema.Columns) {
		var zero R
		return zero, &flatfile.FormatError{Reason: fmt.Sprintf("%s takes %d fields, got %d", t.schema.Name, len(t.schema.Columns), len(fields))}
	}
	row, err := t.schema.Decode(fields)
	if err != nil {
		var zero R
		return zero, err
	}
	if err := t.Add(row); err != nil {
		var zero R
		return zero, err
	}
	return row, nil
}

// Delete removes the row under key.
func (t *Table[K, R]) Delete(key K) error {
	if _, ok := t.rows[key]; !ok {
		return &KeyError{Kind: UnknownKey, Table: t.schema.Name, Key: fmt.Sprint(key)}
	}
	delete(t.rows, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes every row.
func (t *Table[K, R]) Clear() {
	t.rows = make(map[K]R)
	t.order = nil
}

// Save writes one record per row.
func (t *Table[K, R]) Save(w io.Writer) error {
	records := make([][]string, 0, len(t.order))
	for _, k := range t.order {
		records = append(records, t.rows[k].Encode())
	}
	if err := flatfile.Write(w, t.schema.Columns, records); err != nil {
		return fmt.Errorf("save %s: %w", t.schema.Name, err)
	}
	return nil
}

// Load replaces the table contents with the records read from r. The table
// is left untouched if any record fails to decode.
func (t *Table[K, R]) Load(r io.Reader) error {
	commit, err := t.stage(r)
	if err != nil {
		return err
	}
	commit()
	return nil
}

// stage decodes r into a detached copy and returns the swap that installs it.
func (t *Table[K, R]) stage(r io.Reader) (func(), error) {
	records, err := flatfile.Read(r, t.schema.Columns)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", t.schema.Name, err)
	}
	staged := NewTable(t.schema)
	for i, fields := range records {
		if _, err := staged.AddFields(fields...); err != nil {
			return nil, fmt.Errorf("load %s record %d: %w", t.schema.Name, i+1, err)
		}
	}
	return func() {
		t.rows = staged.rows
		t.order = staged.order
	}, nil
}

// NextID returns the smallest positive integer not used as a key, so ids
// freed by deletion are reused. It fails with ErrTableFull once every id of
// IDWidth digits is taken.
func NextID[R Row[int]](t *Table[int, R]) (int, error) {
	highest := 0
	for k := range t.rows {
		if k > highest {
			highest = k
		}
	}
	id := highest + 1
	for candidate := 1; candidate <= highest; candidate++ {
		if _, used := t.rows[candidate]; !used {
			id = candidate
			break
		}
	}
	if id > MaxID {
		return 0, fmt.Errorf("%s: %w (%d ids in use)", t.schema.Name, ErrTableFull, len(t.rows))
	}
	return id, nil
}
