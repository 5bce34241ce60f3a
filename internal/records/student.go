package records

import (
	"fmt"
	"time"

	"awardbook/internal/flatfile"
	"awardbook/internal/validation"
)

// Phase is a student's position in the enrolment lifecycle.
type Phase int

const (
	// PhasePartial: created by staff, personal details not yet submitted.
	PhasePartial Phase = iota
	// PhasePendingApproval: details submitted, awaiting staff review.
	PhasePendingApproval
	// PhaseApproved: accepted onto the scheme; sections may be started.
	PhaseApproved
)

func (p Phase) String() string {
	switch p {
	case PhasePartial:
		return "partial"
	case PhasePendingApproval:
		return "pending approval"
	case PhaseApproved:
		return "approved"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Accepted option sets for enrolment fields.
var (
	Genders   = []string{"male", "female", "other", "pnts"}
	Languages = []string{"english", "welsh"}
)

// DateOfBirthRange admits students aged between 10 and 25.
var DateOfBirthRange = validation.OffsetRange{Min: -365.25 * 25, Max: -365.25 * 10}

// Enrolment holds the personal details a student submits.
type Enrolment struct {
	Fullname       string
	Gender         string
	DateOfBirth    time.Time
	Address        string
	PhonePrimary   string
	EmailPrimary   string
	PhoneEmergency string
	PrimaryLang    string
	SubmissionDate time.Time
}

// EnrolmentForm is the raw input of the enrolment form.
type EnrolmentForm struct {
	Fullname       string
	Gender         string
	DateOfBirth    string
	Address        string
	PhonePrimary   string
	EmailPrimary   string
	PhoneEmergency string
	PrimaryLang    string
}

// Student is keyed by id. The personal details exist only once enrolment
// has been completed; Phase reports which variant a student is in.
type Student struct {
	ID         int
	CentreID   int
	AwardLevel AwardLevel
	YearGroup  int

	approved  bool
	enrolment *Enrolment
	sections  [3]int // indexed by sectionIndex
}

func sectionIndex(t SectionType) (int, error) {
	switch t {
	case Volunteering:
		return 0, nil
	case Skill:
		return 1, nil
	case Physical:
		return 2, nil
	}
	return 0, validation.Errorf(validation.NotInEnum, "section type", string(t), "unknown section type %q", t)
}

// NewStudent validates the staff-entered fields of a new, partial student.
func NewStudent(id int, centreID, awardLevel, yearGroup string) (*Student, error) {
	if _, err := validation.ID(itoa(id), IDWidth, "student ID"); err != nil {
		return nil, err
	}
	centre, err := validation.Int(centreID, "centre ID")
	if err != nil {
		return nil, err
	}
	if centre < 0 || len(itoa(centre)) > 10 {
		return nil, validation.Errorf(validation.LengthOutOfRange, "centre ID", centreID,
			"centre ID must be a non-negative number of at most 10 digits, got %q", centreID)
	}
	level, err := validation.Lookup(awardLevel, stringsOf(AwardLevels), "award level")
	if err != nil {
		return nil, err
	}
	year, err := validation.Int(yearGroup, "year group")
	if err != nil {
		return nil, err
	}
	if year < 7 || year > 13 {
		return nil, validation.Errorf(validation.NotInEnum, "year group", yearGroup,
			"year group must be between 7 and 13, got %q", yearGroup)
	}
	return &Student{ID: id, CentreID: centre, AwardLevel: AwardLevel(level), YearGroup: year}, nil
}

func (s *Student) Key() int { return s.ID }

// Phase derives the lifecycle phase.
func (s *Student) Phase() Phase {
	switch {
	case s.enrolment == nil:
		return PhasePartial
	case s.approved:
		return PhaseApproved
	default:
		return PhasePendingApproval
	}
}

// Approved reports the stored approval flag.
func (s *Student) Approved() bool { return s.approved }

// Enrolment returns the personal details when enrolment is complete.
func (s *Student) Enrolment() (Enrolment, bool) {
	if s.enrolment == nil {
		return Enrolment{}, false
	}
	return *s.enrolment, true
}

// Fullname is empty until enrolment is complete.
func (s *Student) Fullname() string {
	if s.enrolment == nil {
		return ""
	}
	return s.enrolment.Fullname
}

// CompleteEnrolment validates form and moves a partial student to pending
// approval, stamping the submission date.
func (s *Student) CompleteEnrolment(form EnrolmentForm, now time.Time) error {
	if s.Phase() != PhasePartial {
		return fmt.Errorf("complete enrolment of student %d (%s): %w", s.ID, s.Phase(), ErrWrongPhase)
	}
	e, err := validateEnrolment(form, DateOfBirthRange, now)
	if err != nil {
		return err
	}
	e.SubmissionDate = validation.Today(now)
	s.enrolment = e
	s.approved = false
	return nil
}

// Approve accepts a student pending approval.
func (s *Student) Approve() error {
	if s.Phase() != PhasePendingApproval {
		return fmt.Errorf("approve student %d (%s): %w", s.ID, s.Phase(), ErrWrongPhase)
	}
	s.approved = true
	return nil
}

// Reject sends a student pending approval back to partial, clearing the
// submitted details.
func (s *Student) Reject() error {
	if s.Phase() != PhasePendingApproval {
		return fmt.Errorf("reject student %d (%s): %w", s.ID, s.Phase(), ErrWrongPhase)
	}
	s.enrolment = nil
	s.approved = false
	return nil
}

// SectionID returns the linked section of type t.
func (s *Student) SectionID(t SectionType) (int, bool) {
	i, err := sectionIndex(t)
	if err != nil || s.sections[i] == 0 {
		return 0, false
	}
	return s.sections[i], true
}

// LinkSection records a started section. Sections can only be started by
// approved students and only once per type.
func (s *Student) LinkSection(t SectionType, sectionID int) error {
	i, err := sectionIndex(t)
	if err != nil {
		return err
	}
	if s.Phase() != PhaseApproved {
		return fmt.Errorf("start %s section for student %d (%s): %w", t, s.ID, s.Phase(), ErrWrongPhase)
	}
	if s.sections[i] != 0 {
		return fmt.Errorf("student %d already started the %s section (section %d)", s.ID, t, s.sections[i])
	}
	if sectionID < 1 {
		return fmt.Errorf("invalid section id %d", sectionID)
	}
	s.sections[i] = sectionID
	return nil
}

// UnlinkSection clears the link for t, used when rolling back a failed start.
func (s *Student) UnlinkSection(t SectionType) {
	if i, err := sectionIndex(t); err == nil {
		s.sections[i] = 0
	}
}

func (s *Student) Encode() []string {
	out := []string{itoa(s.ID), itoa(s.CentreID), string(s.AwardLevel), itoa(s.YearGroup), flag(s.approved)}
	if e := s.enrolment; e != nil {
		sep := validation.DefaultSeparator
		out = append(out, e.Fullname, e.Gender, validation.DateString(e.DateOfBirth, sep), e.Address,
			e.PhonePrimary, e.EmailPrimary, e.PhoneEmergency, e.PrimaryLang, validation.DateString(e.SubmissionDate, sep))
	} else {
		out = append(out, "", "", "", "", "", "", "", "", "")
	}
	for _, id := range s.sections {
		out = append(out, optionalID(id))
	}
	return out
}

// StudentSchema is the layout of StudentTable.
var StudentSchema = Schema[int, *Student]{
	Name: "StudentTable",
	Columns: []flatfile.Column{
		{Name: "student_id", Width: IDWidth},
		{Name: "centre_id", Width: 10},
		{Name: "award_level", Width: 6},
		{Name: "year_group", Width: 2},
		{Name: "is_approved", Width: 1},
		{Name: "fullname", Width: 30},
		{Name: "gender", Width: 6},
		{Name: "date_of_birth", Width: 10},
		{Name: "address", Width: 100},
		{Name: "phone_primary", Width: 11},
		{Name: "email_primary", Width: 50},
		{Name: "phone_emergency", Width: 11},
		{Name: "primary_lang", Width: 7},
		{Name: "submission_date", Width: 10},
		{Name: "vol_info_id", Width: IDWidth},
		{Name: "skill_info_id", Width: IDWidth},
		{Name: "phys_info_id", Width: IDWidth},
	},
	Decode: decodeStudent,
}

func decodeStudent(f []string) (*Student, error) {
	id, err := validation.ID(f[0], IDWidth, "student ID")
	if err != nil {
		return nil, err
	}
	s, err := NewStudent(id, f[1], f[2], f[3])
	if err != nil {
		return nil, err
	}
	if s.approved, err = validation.Flag(f[4], "approved"); err != nil {
		return nil, err
	}
	if f[5] != "" {
		form := EnrolmentForm{
			Fullname: f[5], Gender: f[6], DateOfBirth: f[7], Address: f[8],
			PhonePrimary: f[9], EmailPrimary: f[10], PhoneEmergency: f[11], PrimaryLang: f[12],
		}
		e, err := validateEnrolment(form, validation.OffsetRange{}, time.Time{})
		if err != nil {
			return nil, err
		}
		if f[13] != "" {
			if e.SubmissionDate, err = validation.Date(f[13], "submission date", validation.DefaultSeparator, validation.OffsetRange{}, time.Time{}); err != nil {
				return nil, err
			}
		}
		s.enrolment = e
	}
	for i, t := range SectionTypes {
		if f[14+i] == "" {
			continue
		}
		if s.sections[i], err = validation.ID(f[14+i], IDWidth, string(t)+" section ID"); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func validateEnrolment(form EnrolmentForm, dobRange validation.OffsetRange, now time.Time) (*Enrolment, error) {
	e := &Enrolment{}
	var err error
	if e.Fullname, err = validation.Length(form.Fullname, 2, 30, "full name"); err != nil {
		return nil, err
	}
	if e.Gender, err = validation.Lookup(form.Gender, Genders, "gender"); err != nil {
		return nil, err
	}
	if e.DateOfBirth, err = validation.Date(form.DateOfBirth, "date of birth", validation.DefaultSeparator, dobRange, now); err != nil {
		return nil, err
	}
	if e.Address, err = validation.Length(form.Address, 5, 100, "address"); err != nil {
		return nil, err
	}
	if e.PhonePrimary, err = validation.Phone(form.PhonePrimary, "primary phone"); err != nil {
		return nil, err
	}
	if e.EmailPrimary, err = validation.Email(form.EmailPrimary, "email"); err != nil {
		return nil, err
	}
	if e.PhoneEmergency, err = validation.Phone(form.PhoneEmergency, "emergency phone"); err != nil {
		return nil, err
	}
	if e.PrimaryLang, err = validation.Lookup(form.PrimaryLang, Languages, "primary language"); err != nil {
		return nil, err
	}
	return e, nil
}
