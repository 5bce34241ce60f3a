package award

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awardbook/internal/records"
)

func TestProgressSummaryPhases(t *testing.T) {
	db := newDB()
	partial, err := records.NewStudent(1, "1", "gold", "12")
	require.NoError(t, err)
	assert.Equal(t, PendingEnrolment, ProgressSummary(partial, db.Sections, db.Resources, fixedNow))

	pending := addStudent(t, db, 2, "gold", false)
	assert.Equal(t, NeedsApproval, ProgressSummary(pending, db.Sections, db.Resources, fixedNow))

	approved := addStudent(t, db, 3, "gold", true)
	assert.Equal(t, NoneStarted, ProgressSummary(approved, db.Sections, db.Resources, fixedNow))
}

func TestProgressSummarySections(t *testing.T) {
	db := newDB()
	s := addStudent(t, db, 1, "bronze", true)
	vol := startSection(t, db, s, records.Volunteering, "90")
	assert.Equal(t, SomeInProgress, ProgressSummary(s, db.Sections, db.Resources, fixedNow))

	skill := startSection(t, db, s, records.Skill, "90")
	phys := startSection(t, db, s, records.Physical, "180")
	assert.Equal(t, AllInProgress, ProgressSummary(s, db.Sections, db.Resources, fixedNow))

	for _, sec := range []*records.Section{vol, skill} {
		r := addEvidence(t, db, 1, sec.ID, "report.pdf")
		require.NoError(t, MarkSectionReport(db.Resources, r.ID))
	}
	assert.Equal(t, SomeInProgress, ProgressSummary(s, db.Sections, db.Resources, fixedNow))

	r := addEvidence(t, db, 1, phys.ID, "report.pdf")
	require.NoError(t, MarkSectionReport(db.Resources, r.ID))
	assert.Equal(t, FullyComplete, ProgressSummary(s, db.Sections, db.Resources, fixedNow))
}
