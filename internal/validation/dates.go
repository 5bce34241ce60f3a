package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DefaultSeparator separates year, month and day in stored dates.
const DefaultSeparator = "/"

const day = 24 * time.Hour

// DateFields is a parsed but not yet calendar-checked date.
type DateFields struct {
	Year  int
	Month int
	Day   int
}

// OffsetRange bounds a date to the open window (now+Min, now+Max), in days.
// The zero value disables the check.
type OffsetRange struct {
	Min float64
	Max float64
}

var defaultDateRE = datePattern(DefaultSeparator)

func datePattern(sep string) *regexp.Regexp {
	q := regexp.QuoteMeta(sep)
	return regexp.MustCompile(`^(\d{4})` + q + `(\d{2})` + q + `(\d{2})$`)
}

// Unbounded reports whether the range check is skipped.
func (r OffsetRange) Unbounded() bool { return r.Min == 0 && r.Max == 0 }

// ParseDate splits s into its year, month and day numbers.
func ParseDate(s, sep string) (DateFields, error) {
	return parseDate(s, "date", sep)
}

func parseDate(s, field, sep string) (DateFields, error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	re := defaultDateRE
	if sep != DefaultSeparator {
		re = datePattern(sep)
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return DateFields{}, newError(MalformedDate, field, s,
			"%s must be written as YYYY%sMM%sDD, got %q", field, sep, sep, s)
	}
	var d DateFields
	d.Year, _ = strconv.Atoi(m[1])
	d.Month, _ = strconv.Atoi(m[2])
	d.Day, _ = strconv.Atoi(m[3])
	return d, nil
}

// Time converts the fields to a UTC midnight, rejecting dates such as month 13
// or 31 April.
func (d DateFields) Time() (time.Time, error) {
	return d.time("date", "")
}

func (d DateFields) time(field, raw string) (time.Time, error) {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if d.Month < 1 || d.Month > 12 || t.Year() != d.Year || int(t.Month()) != d.Month || t.Day() != d.Day {
		if raw == "" {
			raw = FormatDate(d, DefaultSeparator)
		}
		return time.Time{}, newError(ImpossibleDate, field, raw, "%s %q is not a real date", field, raw)
	}
	return t, nil
}

// FormatDate renders d zero padded, the inverse of ParseDate.
func FormatDate(d DateFields, sep string) string {
	if sep == "" {
		sep = DefaultSeparator
	}
	return fmt.Sprintf("%04d%s%02d%s%02d", d.Year, sep, d.Month, sep, d.Day)
}

// DateString renders t, or "" for the zero time.
func DateString(t time.Time, sep string) string {
	if t.IsZero() {
		return ""
	}
	return FormatDate(DateFields{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, sep)
}

// AddDays shifts t by whole days.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// IsPast reports whether t is strictly before now.
func IsPast(t, now time.Time) bool {
	return t.Before(now)
}

// Today truncates now to its UTC calendar date.
func Today(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Date parses value and, unless rng is unbounded, requires it to fall strictly
// inside (now+rng.Min, now+rng.Max).
func Date(value, field, sep string, rng OffsetRange, now time.Time) (time.Time, error) {
	fields, err := parseDate(value, field, sep)
	if err != nil {
		return time.Time{}, err
	}
	t, err := fields.time(field, value)
	if err != nil {
		return time.Time{}, err
	}
	if rng.Unbounded() {
		return t, nil
	}
	earliest := now.Add(time.Duration(rng.Min * float64(day)))
	latest := now.Add(time.Duration(rng.Max * float64(day)))
	if !t.After(earliest) || !t.Before(latest) {
		return time.Time{}, newError(DateOutOfRange, field, value,
			"%s must be after %s and before %s, got %s",
			field, DateString(earliest, sep), DateString(latest, sep), value)
	}
	return t, nil
}
