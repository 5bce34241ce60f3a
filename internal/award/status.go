// Package award derives section status, student progress and timeframe
// eligibility from the stored records, and checks cross-table invariants.
package award

import (
	"time"

	"awardbook/internal/records"
	"awardbook/internal/validation"
)

// Status is the state of one section.
type Status string

const (
	NotStarted    Status = "Not started"
	InProgress    Status = "In Progress"
	PendingReview Status = "Pending Review"
	Completed     Status = "Completed"
)

// ReportIndex answers whether a section has a marked section report.
type ReportIndex interface {
	HasSectionReport(sectionID int) bool
}

// SectionLookup finds sections by id.
type SectionLookup interface {
	Get(id int) (*records.Section, bool)
}

// StatusFromDates is In Progress until start+timescale is reached and
// Pending Review afterwards.
func StatusFromDates(start time.Time, timescaleDays int, now time.Time) Status {
	end := validation.AddDays(start, timescaleDays)
	if end.After(now) {
		return InProgress
	}
	return PendingReview
}

// SectionStatus promotes a section whose report has been marked to
// Completed. A nil section is Not started.
func SectionStatus(sec *records.Section, reports ReportIndex, now time.Time) Status {
	if sec == nil {
		return NotStarted
	}
	if reports != nil && reports.HasSectionReport(sec.ID) {
		return Completed
	}
	return StatusFromDates(sec.StartDate, sec.Timescale, now)
}
