package award

import (
	"context"
	"fmt"
	"strconv"

	"awardbook/internal/records"
)

type ruleFunc struct {
	name string
	fn   func(*records.Database) Result
}

func (r ruleFunc) Name() string { return r.name }

func (r ruleFunc) Evaluate(_ context.Context, db *records.Database) (Result, error) {
	return r.fn(db), nil
}

// SectionReportUniqueRule blocks saving when a section has more than one
// resource marked as its report.
func SectionReportUniqueRule() Rule {
	const name = "section_report_unique"
	return ruleFunc{name: name, fn: func(db *records.Database) Result {
		seen := make(map[int]int)
		res := Result{}
		for _, r := range db.Resources.Rows() {
			if !r.IsSectionReport || r.Type != records.ResourceSectionEvidence {
				continue
			}
			if first, dup := seen[r.ParentID]; dup {
				res.Violations = append(res.Violations, Violation{
					Rule:     name,
					Severity: SeverityBlock,
					Message:  fmt.Sprintf("section %d has reports %d and %d", r.ParentID, first, r.ID),
					Table:    records.ResourceSchema.Name,
					Key:      strconv.Itoa(r.ID),
				})
				continue
			}
			seen[r.ParentID] = r.ID
		}
		return res
	}}
}

// StudentSectionLinksRule warns about student links to sections that are
// missing or of the wrong type.
func StudentSectionLinksRule() Rule {
	const name = "student_section_links"
	return ruleFunc{name: name, fn: func(db *records.Database) Result {
		res := Result{}
		for _, s := range db.Students.Rows() {
			for _, t := range records.SectionTypes {
				id, ok := s.SectionID(t)
				if !ok {
					continue
				}
				sec, found := db.Sections.Get(id)
				var msg string
				switch {
				case !found:
					msg = fmt.Sprintf("student %d links missing %s section %d", s.ID, t, id)
				case sec.Type != t:
					msg = fmt.Sprintf("student %d %s link points at %s section %d", s.ID, t, sec.Type, id)
				default:
					continue
				}
				res.Violations = append(res.Violations, Violation{
					Rule: name, Severity: SeverityWarn, Message: msg,
					Table: records.StudentSchema.Name, Key: strconv.Itoa(s.ID),
				})
			}
		}
		return res
	}}
}

// CredentialOwnerRule warns about logins for students that do not exist.
func CredentialOwnerRule() Rule {
	const name = "credential_owner"
	return ruleFunc{name: name, fn: func(db *records.Database) Result {
		res := Result{}
		for _, c := range db.Credentials.Rows() {
			if _, ok := db.Students.Get(c.StudentID); !ok {
				res.Violations = append(res.Violations, Violation{
					Rule: name, Severity: SeverityWarn,
					Message: fmt.Sprintf("login %s belongs to missing student %d", c.Username, c.StudentID),
					Table:   records.CredentialSchema.Name, Key: c.Username,
				})
			}
		}
		return res
	}}
}

// ResourceParentRule warns about section evidence whose section is gone.
func ResourceParentRule() Rule {
	const name = "resource_parent"
	return ruleFunc{name: name, fn: func(db *records.Database) Result {
		res := Result{}
		for _, r := range db.Resources.Rows() {
			if r.Type != records.ResourceSectionEvidence {
				continue
			}
			if _, ok := db.Sections.Get(r.ParentID); !ok {
				res.Violations = append(res.Violations, Violation{
					Rule: name, Severity: SeverityWarn,
					Message: fmt.Sprintf("resource %d is evidence for missing section %d", r.ID, r.ParentID),
					Table:   records.ResourceSchema.Name, Key: strconv.Itoa(r.ID),
				})
			}
		}
		return res
	}}
}
