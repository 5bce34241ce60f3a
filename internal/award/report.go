package award

import (
	"errors"
	"fmt"

	"awardbook/internal/records"
)

// ErrSectionReportExists is returned when a section already has a report.
var ErrSectionReportExists = errors.New("section already has a section report")

// MarkSectionReport flags resourceID as its section's report. Only section
// evidence can be a report and each section has at most one.
func MarkSectionReport(resources *records.ResourceTable, resourceID int) error {
	r, err := resources.MustGet(resourceID)
	if err != nil {
		return err
	}
	if r.Type != records.ResourceSectionEvidence {
		return fmt.Errorf("resource %d is %s, not section evidence", r.ID, r.Type)
	}
	if r.IsSectionReport {
		return nil
	}
	if existing, ok := resources.SectionReport(r.ParentID); ok {
		return fmt.Errorf("section %d report is resource %d: %w", r.ParentID, existing.ID, ErrSectionReportExists)
	}
	r.IsSectionReport = true
	return nil
}

// UnmarkSectionReport clears the report flag.
func UnmarkSectionReport(resources *records.ResourceTable, resourceID int) error {
	r, err := resources.MustGet(resourceID)
	if err != nil {
		return err
	}
	r.IsSectionReport = false
	return nil
}
