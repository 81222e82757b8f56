package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttapp-api/internal/models"
)

func subjectFixture(id, name string) models.Subject {
	return models.Subject{ID: id, Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
}

func catalogueFixture() []models.Subject {
	return []models.Subject{
		subjectFixture("lib", "Library"),
		subjectFixture("gam", "Games"),
		subjectFixture("mat", "Maths"),
		subjectFixture("eng", "English"),
		subjectFixture("hin", "Hindi"),
		subjectFixture("sci", "Science"),
		subjectFixture("soc", "Social"),
		subjectFixture("geo", "Geography"),
		subjectFixture("his", "History"),
	}
}

func TestLowerGradePlanShape(t *testing.T) {
	engine := NewSlotRuleEngine(catalogueFixture())

	plan, gaps, err := engine.DayPlan(7, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, gaps)
	require.Len(t, plan, 8)

	seen := map[string]int{}
	for i, slot := range plan {
		assert.Equal(t, i+1, slot.Period)
		seen[slot.Subject.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "subject %s repeated", id)
	}

	assert.Equal(t, "lib", plan[6].Subject.ID)
	assert.False(t, plan[6].RequiresTeacher)
	assert.Equal(t, "gam", plan[7].Subject.ID)
	assert.False(t, plan[7].RequiresTeacher)
	for _, slot := range plan[:6] {
		assert.True(t, slot.RequiresTeacher)
	}
}

func TestLowerGradePlanRepeatsWhenCatalogueIsShort(t *testing.T) {
	// Five teaching subjects for a band that needs six: the day still gets
	// all eight periods, with one subject taking a second slot.
	subjects := []models.Subject{
		subjectFixture("lib", "Library"),
		subjectFixture("gam", "Games"),
		subjectFixture("mat", "Maths"),
		subjectFixture("eng", "English"),
		subjectFixture("hin", "Hindi"),
		subjectFixture("sci", "Science"),
		subjectFixture("soc", "Social"),
	}
	engine := NewSlotRuleEngine(subjects)

	plan, gaps, err := engine.DayPlan(7, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, gaps)
	require.Len(t, plan, 8)

	for i, slot := range plan {
		assert.Equal(t, i+1, slot.Period)
	}
	distinct := map[string]bool{}
	for _, slot := range plan[:6] {
		assert.True(t, slot.RequiresTeacher)
		distinct[slot.Subject.ID] = true
	}
	assert.Len(t, distinct, 5, "all five teaching subjects placed, one repeated")
}

func TestLowerGradeCollapsesScienceFamily(t *testing.T) {
	subjects := append(catalogueFixture(),
		subjectFixture("phy", "Physical Science"),
		subjectFixture("bio", "Bio Science"),
	)
	engine := NewSlotRuleEngine(subjects)

	plan, _, err := engine.DayPlan(6, 0, nil)
	require.NoError(t, err)

	scienceCount := 0
	for _, slot := range plan {
		switch slot.Subject.ID {
		case "sci", "phy", "bio":
			scienceCount++
		}
	}
	assert.Equal(t, 1, scienceCount, "science family must collapse into one slot")
}

func TestMiddleGradeAlternatesQuietPeriod(t *testing.T) {
	engine := NewSlotRuleEngine(catalogueFixture())

	for day := 0; day < models.SchoolDays; day++ {
		plan, gaps, err := engine.DayPlan(8, day, nil)
		require.NoError(t, err)
		assert.Empty(t, gaps)
		require.Len(t, plan, 8)

		last := plan[7]
		assert.False(t, last.RequiresTeacher)
		if day%2 == 0 {
			assert.Equal(t, "lib", last.Subject.ID, "day %d", day)
		} else {
			assert.Equal(t, "gam", last.Subject.ID, "day %d", day)
		}
	}
}

func TestTenthGradeMathsBookends(t *testing.T) {
	engine := NewSlotRuleEngine(catalogueFixture())

	plan, gaps, err := engine.DayPlan(10, 2, nil)
	require.NoError(t, err)
	assert.Empty(t, gaps)
	require.Len(t, plan, 8)

	assert.Equal(t, 1, plan[0].Period)
	assert.Equal(t, "mat", plan[0].Subject.ID)
	assert.Equal(t, 8, plan[7].Period)
	assert.Equal(t, "mat", plan[7].Subject.ID)

	for _, slot := range plan[1:7] {
		assert.NotEqual(t, "mat", slot.Subject.ID, "maths may only bookend the day")
		assert.True(t, slot.RequiresTeacher)
	}
}

func TestTenthGradeMissingMathsReportsGaps(t *testing.T) {
	subjects := []models.Subject{
		subjectFixture("lib", "Library"),
		subjectFixture("gam", "Games"),
		subjectFixture("eng", "English"),
		subjectFixture("hin", "Hindi"),
		subjectFixture("sci", "Science"),
		subjectFixture("soc", "Social"),
		subjectFixture("geo", "Geography"),
		subjectFixture("his", "History"),
	}
	engine := NewSlotRuleEngine(subjects)

	plan, gaps, err := engine.DayPlan(10, 0, nil)
	require.NoError(t, err)

	periods := map[int]bool{}
	for _, slot := range plan {
		periods[slot.Period] = true
	}
	assert.False(t, periods[1])
	assert.False(t, periods[8])

	require.Len(t, gaps, 2)
	assert.Equal(t, 1, gaps[0].Period)
	assert.Equal(t, 8, gaps[1].Period)
}

func TestUnsupportedGradeRefused(t *testing.T) {
	engine := NewSlotRuleEngine(catalogueFixture())

	_, _, err := engine.DayPlan(5, 0, nil)
	require.Error(t, err)
	assert.False(t, engine.SupportsGrade(5))
	assert.False(t, engine.SupportsGrade(11))
	for grade := 6; grade <= 10; grade++ {
		assert.True(t, engine.SupportsGrade(grade), "grade %d", grade)
	}
}

func TestMissingLibrarySubjectReportsGap(t *testing.T) {
	subjects := []models.Subject{
		subjectFixture("gam", "Games"),
		subjectFixture("mat", "Maths"),
		subjectFixture("eng", "English"),
		subjectFixture("hin", "Hindi"),
		subjectFixture("sci", "Science"),
		subjectFixture("soc", "Social"),
		subjectFixture("geo", "Geography"),
	}
	engine := NewSlotRuleEngine(subjects)

	plan, gaps, err := engine.DayPlan(7, 0, nil)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, 7, gaps[0].Period)
	assert.Equal(t, "library", gaps[0].Subject)

	for _, slot := range plan {
		assert.NotEqual(t, 7, slot.Period)
	}
}

func TestDayPlanRespectsPreUsedSubjects(t *testing.T) {
	engine := NewSlotRuleEngine(catalogueFixture())

	used := map[string]bool{"eng": true}
	plan, _, err := engine.DayPlan(7, 0, used)
	require.NoError(t, err)
	for _, slot := range plan {
		assert.NotEqual(t, "eng", slot.Subject.ID)
	}
}

func TestClassifySubjectIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, subjectLibrary, classifySubject("  LIBRARY "))
	assert.Equal(t, subjectGames, classifySubject("games"))
	assert.Equal(t, subjectMaths, classifySubject("Mathematics"))
	assert.Equal(t, subjectScience, classifySubject("Bio Science"))
	assert.Equal(t, subjectRegular, classifySubject("English"))
}
