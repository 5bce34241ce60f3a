package records

// AwardLevel is the tier a student is working towards.
type AwardLevel string

const (
	Bronze AwardLevel = "bronze"
	Silver AwardLevel = "silver"
	Gold   AwardLevel = "gold"
)

// AwardLevels lists every level in ascending order.
var AwardLevels = []AwardLevel{Bronze, Silver, Gold}

// SectionType is one of the three core sections of an award.
type SectionType string

const (
	Volunteering SectionType = "vol"
	Skill        SectionType = "skill"
	Physical     SectionType = "phys"
)

// SectionTypes lists the sections in display order.
var SectionTypes = []SectionType{Volunteering, Skill, Physical}

// Title is the human-readable section name.
func (s SectionType) Title() string {
	switch s {
	case Volunteering:
		return "Volunteering"
	case Skill:
		return "Skill"
	case Physical:
		return "Physical"
	}
	return string(s)
}

// ResourceType tells what a resource's parent id points at.
type ResourceType string

const (
	ResourceEvent           ResourceType = "event"
	ResourceSectionEvidence ResourceType = "section_evidence"
)

// Timescales are the permitted section durations in days.
var Timescales = []int{90, 180, 360}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
