package award

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"awardbook/internal/blob"
	"awardbook/internal/records"
)

var fixedNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func newDB() *records.Database {
	return records.NewDatabase(nil, blob.NewMemory())
}

func addStudent(t *testing.T, db *records.Database, id int, level string, approve bool) *records.Student {
	t.Helper()
	s, err := records.NewStudent(id, "68362", level, "10")
	require.NoError(t, err)
	require.NoError(t, s.CompleteEnrolment(records.EnrolmentForm{
		Fullname: "Test Student", Gender: "other", DateOfBirth: "2011/01/01",
		Address: "1 School Lane", PhonePrimary: "0123456789", EmailPrimary: "s@school.uk",
		PhoneEmergency: "0123456780", PrimaryLang: "welsh",
	}, fixedNow))
	if approve {
		require.NoError(t, s.Approve())
	}
	require.NoError(t, db.Students.Add(s))
	return s
}

// startSection adds a section of typ starting tomorrow and links it.
func startSection(t *testing.T, db *records.Database, s *records.Student, typ records.SectionType, days string) *records.Section {
	t.Helper()
	id, err := records.NextID(db.Sections)
	require.NoError(t, err)
	sec, err := records.NewSection(id, records.SectionProposal{
		Type: string(typ), StartDate: "2026/03/11", Timescale: days,
		ActivityType: "Football", Details: "Training twice a week", Goals: "Improve stamina",
		AssessorName: "Coach Carter", AssessorPhone: "0123456789", AssessorEmail: "coach@club.uk",
	}, fixedNow)
	require.NoError(t, err)
	require.NoError(t, db.Sections.Add(sec))
	require.NoError(t, s.LinkSection(typ, sec.ID))
	return sec
}

func addEvidence(t *testing.T, db *records.Database, studentID, sectionID int, name string) *records.Resource {
	t.Helper()
	added, err := db.Resources.AddStudentResources(context.Background(), studentID, sectionID,
		[]records.Upload{{Name: name, Body: strings.NewReader("evidence")}}, fixedNow)
	require.NoError(t, err)
	require.Len(t, added, 1)
	return added[0]
}
