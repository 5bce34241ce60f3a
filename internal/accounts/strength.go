package accounts

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"awardbook/internal/validation"
)

// Password policy.
const (
	MinPasswordLength = 6
	maxSimilarity     = 0.7
)

// Strength records which policy checks a password passed.
type Strength struct {
	Length   bool
	Lower    bool
	Upper    bool
	Digit    bool
	Distinct bool // not too similar to the account's names
}

// OK reports whether every check passed.
func (s Strength) OK() bool {
	return s.Length && s.Lower && s.Upper && s.Digit && s.Distinct
}

// MeasureStrength runs every policy check without stopping at the first
// failure. attrs are account attributes the password must not resemble.
func MeasureStrength(password string, attrs ...string) Strength {
	n := utf8.RuneCountInString(password)
	s := Strength{Length: n >= MinPasswordLength && n <= MaxPasswordLength, Distinct: true}
	for _, r := range password {
		switch {
		case 'a' <= r && r <= 'z':
			s.Lower = true
		case 'A' <= r && r <= 'Z':
			s.Upper = true
		case unicode.IsDigit(r):
			s.Digit = true
		}
	}
	for _, attr := range attrs {
		if similarity(password, attr) >= maxSimilarity {
			s.Distinct = false
		}
	}
	return s
}

func similarity(password, attr string) float64 {
	if attr == "" {
		return 0
	}
	a := strings.Split(strings.ToLower(password), "")
	b := strings.Split(strings.ToLower(attr), "")
	return difflib.NewMatcher(a, b).Ratio()
}

// CheckPasswordStrength returns a WeakPassword error naming the first failed
// check, or nil.
func CheckPasswordStrength(password string, attrs ...string) error {
	s := MeasureStrength(password, attrs...)
	if s.OK() {
		return nil
	}
	return validation.Errorf(validation.WeakPassword, "password", "", "%s", s.problem())
}

func (s Strength) problem() string {
	switch {
	case !s.Length:
		return pwdLengthText
	case !s.Lower:
		return pwdLowerText
	case !s.Upper:
		return pwdUpperText
	case !s.Digit:
		return pwdDigitText
	case !s.Distinct:
		return pwdSimilarText
	}
	return ""
}
