package award

import (
	"time"

	"awardbook/internal/records"
)

// Progress summarises a student's position in the scheme.
type Progress string

const (
	PendingEnrolment Progress = "Pending enrolment"
	NeedsApproval    Progress = "Needs approval"
	FullyComplete    Progress = "Fully complete"
	AllInProgress    Progress = "All in progress"
	SomeInProgress   Progress = "In progress"
	NoneStarted      Progress = "None started"
)

// ProgressSummary counts started and completed sections. Enrolment and
// approval are checked before any section logic.
func ProgressSummary(s *records.Student, sections SectionLookup, reports ReportIndex, now time.Time) Progress {
	switch s.Phase() {
	case records.PhasePartial:
		return PendingEnrolment
	case records.PhasePendingApproval:
		return NeedsApproval
	}
	started, finished := 0, 0
	for _, t := range records.SectionTypes {
		id, ok := s.SectionID(t)
		if !ok {
			continue
		}
		started++
		sec, _ := sections.Get(id)
		if SectionStatus(sec, reports, now) == Completed {
			finished++
		}
	}
	total := len(records.SectionTypes)
	switch {
	case finished == total:
		return FullyComplete
	case started == total && finished == 0:
		return AllInProgress
	case started > 0:
		return SomeInProgress
	default:
		return NoneStarted
	}
}
