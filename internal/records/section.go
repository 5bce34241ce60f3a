package records

import (
	"strconv"
	"time"

	"awardbook/internal/flatfile"
	"awardbook/internal/validation"
)

// SectionStartRange admits start dates within the coming year.
var SectionStartRange = validation.OffsetRange{Min: 0, Max: 365.25}

// Section is one activity a student commits to for a fixed number of days.
type Section struct {
	ID            int
	Type          SectionType
	StartDate     time.Time
	Timescale     int // days
	ActivityType  string
	Details       string
	Goals         string
	AssessorName  string
	AssessorPhone string
	AssessorEmail string
}

// SectionProposal is the raw input of the start-section form.
type SectionProposal struct {
	Type          string
	StartDate     string
	Timescale     string
	ActivityType  string
	Details       string
	Goals         string
	AssessorName  string
	AssessorPhone string
	AssessorEmail string
}

// NewSection validates p as a section starting after now.
func NewSection(id int, p SectionProposal, now time.Time) (*Section, error) {
	return newSection(id, p, SectionStartRange, now)
}

func newSection(id int, p SectionProposal, startRange validation.OffsetRange, now time.Time) (*Section, error) {
	if _, err := validation.ID(itoa(id), IDWidth, "section ID"); err != nil {
		return nil, err
	}
	s := &Section{ID: id}
	typ, err := validation.Lookup(p.Type, stringsOf(SectionTypes), "section type")
	if err != nil {
		return nil, err
	}
	s.Type = SectionType(typ)
	if s.StartDate, err = validation.Date(p.StartDate, "start date", validation.DefaultSeparator, startRange, now); err != nil {
		return nil, err
	}
	scale, err := validation.Lookup(p.Timescale, timescaleOptions(), "timescale")
	if err != nil {
		return nil, err
	}
	s.Timescale, _ = strconv.Atoi(scale)
	if s.ActivityType, err = validation.Length(p.ActivityType, 3, 20, "activity type"); err != nil {
		return nil, err
	}
	if s.Details, err = validation.Length(p.Details, 10, 200, "activity details"); err != nil {
		return nil, err
	}
	if s.Goals, err = validation.Length(p.Goals, 10, 100, "activity goals"); err != nil {
		return nil, err
	}
	if s.AssessorName, err = validation.Length(p.AssessorName, 2, 30, "assessor name"); err != nil {
		return nil, err
	}
	if s.AssessorPhone, err = validation.Phone(p.AssessorPhone, "assessor phone"); err != nil {
		return nil, err
	}
	if s.AssessorEmail, err = validation.Email(p.AssessorEmail, "assessor email"); err != nil {
		return nil, err
	}
	return s, nil
}

func timescaleOptions() []string {
	out := make([]string, len(Timescales))
	for i, d := range Timescales {
		out[i] = itoa(d)
	}
	return out
}

func (s *Section) Key() int { return s.ID }

// EndDate is the start date plus the timescale.
func (s *Section) EndDate() time.Time {
	return validation.AddDays(s.StartDate, s.Timescale)
}

// Months is the timescale expressed in months (90 days = 3 months).
func (s *Section) Months() int { return s.Timescale / 30 }

func (s *Section) Encode() []string {
	return []string{
		itoa(s.ID), string(s.Type), validation.DateString(s.StartDate, validation.DefaultSeparator), itoa(s.Timescale),
		s.ActivityType, s.Details, s.Goals, s.AssessorName, s.AssessorPhone, s.AssessorEmail,
	}
}

// SectionSchema is the layout of SectionTable.
var SectionSchema = Schema[int, *Section]{
	Name: "SectionTable",
	Columns: []flatfile.Column{
		{Name: "section_id", Width: IDWidth},
		{Name: "section_type", Width: 5},
		{Name: "activity_start_date", Width: 10},
		{Name: "activity_timescale", Width: 3},
		{Name: "activity_type", Width: 20},
		{Name: "activity_details", Width: 200},
		{Name: "activity_goals", Width: 100},
		{Name: "assessor_fullname", Width: 30},
		{Name: "assessor_phone", Width: 11},
		{Name: "assessor_email", Width: 50},
	},
	Decode: func(f []string) (*Section, error) {
		id, err := validation.ID(f[0], IDWidth, "section ID")
		if err != nil {
			return nil, err
		}
		// Stored start dates are historical, so the window is not applied.
		return newSection(id, SectionProposal{
			Type: f[1], StartDate: f[2], Timescale: f[3], ActivityType: f[4], Details: f[5],
			Goals: f[6], AssessorName: f[7], AssessorPhone: f[8], AssessorEmail: f[9],
		}, validation.OffsetRange{}, time.Time{})
	},
}
