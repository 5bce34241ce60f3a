package award

import (
	"fmt"
	"strconv"

	"awardbook/internal/records"
	"awardbook/internal/validation"
)

// Months is a section length in months; one month is 30 days.
type Months int

// Days converts to the stored timescale.
func (m Months) Days() int { return int(m) * 30 }

// Chosen maps section types to the timeframe already picked.
type Chosen map[records.SectionType]Months

// ChosenTimeframes collects the timeframes of a student's started sections.
func ChosenTimeframes(s *records.Student, sections SectionLookup) Chosen {
	out := Chosen{}
	for _, t := range records.SectionTypes {
		id, ok := s.SectionID(t)
		if !ok {
			continue
		}
		if sec, ok := sections.Get(id); ok {
			out[t] = Months(sec.Months())
		}
	}
	return out
}

// PossibleTimeframes returns the timeframes still open for section typ at
// level, given the sibling choices. Unknown levels or types yield nil.
func PossibleTimeframes(level records.AwardLevel, typ records.SectionType, chosen Chosen) []Months {
	switch level {
	case records.Bronze:
		for t, m := range chosen {
			if t != typ && m == 6 {
				return []Months{3}
			}
		}
		return []Months{3, 6}
	case records.Silver:
		return pairedTimeframes(typ, chosen, 6, 3, 6)
	case records.Gold:
		return pairedTimeframes(typ, chosen, 12, 6, 12)
	}
	return nil
}

// pairedTimeframes handles silver and gold: volunteering is fixed while skill
// and physical must take opposite lengths.
func pairedTimeframes(typ records.SectionType, chosen Chosen, vol, short, long Months) []Months {
	var sibling records.SectionType
	switch typ {
	case records.Volunteering:
		return []Months{vol}
	case records.Skill:
		sibling = records.Physical
	case records.Physical:
		sibling = records.Skill
	default:
		return nil
	}
	switch chosen[sibling] {
	case short:
		return []Months{long}
	case long:
		return []Months{short}
	default:
		return []Months{short, long}
	}
}

// CheckTimescale rejects a timescale, in days, that is not currently open
// to the student for typ.
func CheckTimescale(level records.AwardLevel, typ records.SectionType, chosen Chosen, days int) error {
	options := PossibleTimeframes(level, typ, chosen)
	allowed := make([]string, len(options))
	for i, m := range options {
		if m.Days() == days {
			return nil
		}
		allowed[i] = strconv.Itoa(m.Days())
	}
	return validation.Errorf(validation.NotInEnum, "timescale", strconv.Itoa(days),
		"a %s %s section can run for %v days, got %d", level, typ.Title(), allowed, days)
}

func (m Months) String() string { return fmt.Sprintf("%d months", int(m)) }
