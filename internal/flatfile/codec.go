// Package flatfile encodes rows as fixed-width text records. Each field is
// left justified and space padded to its column width; fields are joined by
// Separator and each record ends with a newline.
package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Separator joins the fields of a record.
const Separator = `\%s`

// Column names a field and its fixed width in characters.
type Column struct {
	Name  string
	Width int
}

// FormatError reports a record that cannot be written or read.
type FormatError struct {
	Line   int // 1-based; 0 when encoding
	Column string
	Reason string
}

func (e *FormatError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("flatfile: line %d, column %s: %s", e.Line, e.Column, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("flatfile: line %d: %s", e.Line, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("flatfile: column %s: %s", e.Column, e.Reason)
	default:
		return "flatfile: " + e.Reason
	}
}

// EncodeRecord pads values to their columns. Values wider than the column or
// containing the separator or a line break are rejected rather than truncated.
func EncodeRecord(cols []Column, values []string) (string, error) {
	if len(values) != len(cols) {
		return "", &FormatError{Reason: fmt.Sprintf("got %d values for %d columns", len(values), len(cols))}
	}
	var b strings.Builder
	for i, col := range cols {
		v := values[i]
		if strings.Contains(v, Separator) || strings.ContainsAny(v, "\r\n") {
			return "", &FormatError{Column: col.Name, Reason: "value contains a separator or line break"}
		}
		n := utf8.RuneCountInString(v)
		if n > col.Width {
			return "", &FormatError{Column: col.Name, Reason: fmt.Sprintf("value is %d characters, column holds %d", n, col.Width)}
		}
		if i > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(v)
		b.WriteString(strings.Repeat(" ", col.Width-n))
	}
	return b.String(), nil
}

// DecodeRecord splits line into trimmed fields. A trailing empty fragment is
// tolerated so files written with a separator after the last field still load.
func DecodeRecord(cols []Column, line string) ([]string, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, Separator)
	if len(parts) == len(cols)+1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(cols)]
	}
	if len(parts) != len(cols) {
		return nil, &FormatError{Reason: fmt.Sprintf("got %d fields, want %d", len(parts), len(cols))}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

// Write encodes every record and writes it newline terminated.
func Write(w io.Writer, cols []Column, records [][]string) error {
	bw := bufio.NewWriter(w)
	for _, values := range records {
		line, err := EncodeRecord(cols, values)
		if err != nil {
			return err
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read decodes every non-blank line of r.
func Read(r io.Reader, cols []Column) ([][]string, error) {
	var out [][]string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields, err := DecodeRecord(cols, line)
		if err != nil {
			if fe, ok := err.(*FormatError); ok {
				fe.Line = lineNo
			}
			return nil, err
		}
		out = append(out, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
