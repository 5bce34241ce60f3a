package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"awardbook/internal/flatfile"
)

// Email and phone constraints shared by students and assessors.
const (
	EmailPattern = `[^@]+@[^@.]+\.[^@.]+`
	EmailHint    = "abc@def.ghi"
	EmailMin     = 5
	EmailMax     = 50
	PhoneMin     = 9
	PhoneMax     = 11
)

var emailRE = Pattern(EmailPattern)

// Pattern compiles a pattern that must match a whole value.
func Pattern(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + pattern + `)$`)
}

// Int parses value as a base-10 integer.
func Int(value, field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, newError(NotAnInteger, field, value, "%s must be a whole number, got %q", field, value)
	}
	return n, nil
}

// Length accepts value when min <= characters <= max and the value can be
// stored as a table field unchanged.
func Length(value string, min, max int, field string) (string, error) {
	if err := Storable(value, field); err != nil {
		return "", err
	}
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		return "", newError(LengthOutOfRange, field, value,
			"%s must be between %d and %d characters long, got %d", field, min, max, n)
	}
	return value, nil
}

// Storable rejects values that would not survive a save and load. Padding
// is trimmed on load and a separator would split the record.
func Storable(value, field string) error {
	if strings.TrimSpace(value) != value {
		return newError(Unstorable, field, value,
			"%s must not start or end with spaces, got %q", field, value)
	}
	if strings.Contains(value, flatfile.Separator) || strings.ContainsAny(value, "\r\n") {
		return newError(Unstorable, field, value,
			"%s must not contain %q or a line break", field, flatfile.Separator)
	}
	return nil
}

// Lookup accepts value when it is exactly one of allowed.
func Lookup(value string, allowed []string, field string) (string, error) {
	for _, option := range allowed {
		if value == option {
			return value, nil
		}
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return "", newError(NotInEnum, field, value,
		"%s must be one of %s, got %q", field, strings.Join(sorted, ", "), value)
}

// Regex accepts value when it matches pattern in full. The message shows
// hint rather than the pattern.
func Regex(value, pattern, field, hint string) (string, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return "", fmt.Errorf("compile pattern for %s: %w", field, err)
	}
	return Match(value, re, field, hint)
}

// Match accepts value when re matches it. Use with patterns built by Pattern.
func Match(value string, re *regexp.Regexp, field, hint string) (string, error) {
	if !re.MatchString(value) {
		return "", newError(PatternMismatch, field, value,
			"%s must look like %s, got %q", field, hint, value)
	}
	return value, nil
}

// Email checks length and shape of an email address.
func Email(value, field string) (string, error) {
	if _, err := Length(value, EmailMin, EmailMax, field); err != nil {
		return "", err
	}
	return Match(value, emailRE, field, EmailHint)
}

// Phone checks the length of a phone number.
func Phone(value, field string) (string, error) {
	return Length(value, PhoneMin, PhoneMax, field)
}

// Flag parses a stored 0/1 value.
func Flag(value, field string) (bool, error) {
	v, err := Lookup(value, []string{"0", "1"}, field)
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

// ID parses a positive integer key that fits in width digits.
func ID(value string, width int, field string) (int, error) {
	n, err := Int(value, field)
	if err != nil {
		return 0, err
	}
	if n < 1 || len(strconv.Itoa(n)) > width {
		return 0, newError(LengthOutOfRange, field, value,
			"%s must be a positive number of at most %d digits, got %q", field, width, value)
	}
	return n, nil
}
