package award

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awardbook/internal/records"
	"awardbook/internal/validation"
)

func TestPossibleTimeframesTable(t *testing.T) {
	cases := []struct {
		level  records.AwardLevel
		typ    records.SectionType
		chosen Chosen
		want   []Months
	}{
		{records.Bronze, records.Volunteering, Chosen{}, []Months{3, 6}},
		{records.Bronze, records.Skill, Chosen{records.Volunteering: 3}, []Months{3, 6}},
		{records.Bronze, records.Physical, Chosen{records.Skill: 6}, []Months{3}},
		{records.Bronze, records.Skill, Chosen{records.Skill: 6}, []Months{3, 6}},
		{records.Silver, records.Volunteering, Chosen{records.Skill: 3}, []Months{6}},
		{records.Silver, records.Physical, Chosen{records.Skill: 3}, []Months{6}},
		{records.Silver, records.Skill, Chosen{records.Physical: 6}, []Months{3}},
		{records.Silver, records.Skill, Chosen{records.Volunteering: 6}, []Months{3, 6}},
		{records.Gold, records.Volunteering, Chosen{}, []Months{12}},
		{records.Gold, records.Physical, Chosen{records.Skill: 6}, []Months{12}},
		{records.Gold, records.Skill, Chosen{records.Physical: 12}, []Months{6}},
		{records.Gold, records.Skill, Chosen{}, []Months{6, 12}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PossibleTimeframes(tc.level, tc.typ, tc.chosen),
			"%s %s with %v", tc.level, tc.typ, tc.chosen)
	}
	assert.Nil(t, PossibleTimeframes("platinum", records.Skill, nil))
}

func TestSilverPhysicalAfterThreeMonthSkill(t *testing.T) {
	db := newDB()
	s := addStudent(t, db, 1, "silver", true)
	startSection(t, db, s, records.Skill, "90")

	chosen := ChosenTimeframes(s, db.Sections)
	require.Equal(t, Chosen{records.Skill: 3}, chosen)
	assert.Equal(t, []Months{6}, PossibleTimeframes(records.Silver, records.Physical, chosen))

	assert.NoError(t, CheckTimescale(records.Silver, records.Physical, chosen, 180))
	err := CheckTimescale(records.Silver, records.Physical, chosen, 90)
	assert.True(t, validation.IsKind(err, validation.NotInEnum), "got %v", err)
}
