// Package validation holds the field validators and the date codec shared by
// every record type. All user-input failures surface as *Error so callers can
// show Message directly without branching on the failure kind.
package validation

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure.
type Kind int

const (
	// NotAnInteger reports a value that does not parse as a base-10 integer.
	NotAnInteger Kind = iota + 1
	// LengthOutOfRange reports a value outside its inclusive length bounds.
	LengthOutOfRange
	// NotInEnum reports a value that is not one of the allowed options.
	NotInEnum
	// PatternMismatch reports a value that does not fully match its pattern.
	PatternMismatch
	// MalformedDate reports a date string not in YYYY<sep>MM<sep>DD form.
	MalformedDate
	// ImpossibleDate reports numbers that do not form a calendar date.
	ImpossibleDate
	// DateOutOfRange reports a date outside the permitted window around now.
	DateOutOfRange
	// Required reports an empty mandatory value.
	Required
	// Mismatch reports a confirmation field that differs from its original.
	Mismatch
	// WeakPassword reports a password rejected by the strength policy.
	WeakPassword
	// Unstorable reports text that would not load back unchanged.
	Unstorable
)

var kindNames = map[Kind]string{
	NotAnInteger:     "not_an_integer",
	LengthOutOfRange: "length_out_of_range",
	NotInEnum:        "not_in_enum",
	PatternMismatch:  "pattern_mismatch",
	MalformedDate:    "malformed_date",
	ImpossibleDate:   "impossible_date",
	DateOutOfRange:   "date_out_of_range",
	Required:         "required",
	Mismatch:         "mismatch",
	WeakPassword:     "weak_password",
	Unstorable:       "unstorable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error describes a rejected field value.
type Error struct {
	Kind    Kind
	Field   string
	Value   string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, field, value, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds an *Error for validators that live outside this package.
func Errorf(kind Kind, field, value, format string, args ...any) *Error {
	return newError(kind, field, value, format, args...)
}

// IsKind reports whether err is a validation error of the given kind.
func IsKind(err error, kind Kind) bool {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind == kind
	}
	return false
}
