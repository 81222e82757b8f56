package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/ttapp-api/internal/models"
	appErrors "github.com/noah-isme/ttapp-api/pkg/errors"
)

// subjectKind classifies subjects whose names trigger special placement
// rules. Names are matched case-insensitively.
type subjectKind int

const (
	subjectRegular subjectKind = iota
	subjectLibrary
	subjectGames
	subjectMaths
	subjectScience
)

func classifySubject(name string) subjectKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "library":
		return subjectLibrary
	case "games":
		return subjectGames
	case "maths", "mathematics":
		return subjectMaths
	case "science", "physical science", "bio science":
		return subjectScience
	default:
		return subjectRegular
	}
}

// PeriodSlot describes one period of a class's day plan.
type PeriodSlot struct {
	Period          int
	Subject         models.Subject
	RequiresTeacher bool
}

// SlotGap marks a period the rule engine could not plan, typically because
// a distinguished subject is not defined in the catalogue.
type SlotGap struct {
	Period  int
	Subject string
	Reason  string
}

// SlotRuleEngine produces grade-banded day plans: the ordered list of
// (subject, requires-teacher) slots for a single class day. Library and
// games never require a teacher; maths repeats at periods 1 and 8 for
// grade 10 and is the only subject allowed to repeat within a day.
type SlotRuleEngine struct {
	library  *models.Subject
	games    *models.Subject
	maths    *models.Subject
	teaching []models.Subject
	science  map[string]bool
}

// NewSlotRuleEngine indexes the subject catalogue. The teaching pool keeps
// the catalogue order after a stable sort by name so plans are
// deterministic regardless of store enumeration order.
func NewSlotRuleEngine(subjects []models.Subject) *SlotRuleEngine {
	e := &SlotRuleEngine{science: make(map[string]bool)}
	sorted := make([]models.Subject, len(subjects))
	copy(sorted, subjects)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name == sorted[j].Name {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Name < sorted[j].Name
	})
	for i := range sorted {
		subject := sorted[i]
		switch classifySubject(subject.Name) {
		case subjectLibrary:
			if e.library == nil {
				e.library = &sorted[i]
			}
		case subjectGames:
			if e.games == nil {
				e.games = &sorted[i]
			}
		case subjectMaths:
			if e.maths == nil {
				e.maths = &sorted[i]
			}
			e.teaching = append(e.teaching, subject)
		case subjectScience:
			e.science[subject.ID] = true
			e.teaching = append(e.teaching, subject)
		default:
			e.teaching = append(e.teaching, subject)
		}
	}
	return e
}

// TeachingSubjects returns the subjects that need a teacher, in plan order.
func (e *SlotRuleEngine) TeachingSubjects() []models.Subject {
	return e.teaching
}

// SupportsGrade reports whether generation is defined for the grade.
func (e *SlotRuleEngine) SupportsGrade(grade int) bool {
	return grade >= 6 && grade <= 10
}

// DayPlan builds the ordered slot list for one class day. The used set
// carries subject IDs already placed for that class+day (the class-teacher
// pass pre-fills period 1), letting plans compose without repeats.
func (e *SlotRuleEngine) DayPlan(grade, day int, used map[string]bool) ([]PeriodSlot, []SlotGap, error) {
	if used == nil {
		used = make(map[string]bool)
	}
	switch {
	case grade == 6 || grade == 7:
		return e.lowerGradePlan(used)
	case grade == 8 || grade == 9:
		return e.middleGradePlan(day, used)
	case grade == 10:
		return e.tenthGradePlan(used)
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("no slot rules defined for grade %d", grade))
	}
}

// Grades 6-7: periods 1-6 distinct subjects with the science family
// collapsed into one slot, period 7 library, period 8 games.
func (e *SlotRuleEngine) lowerGradePlan(used map[string]bool) ([]PeriodSlot, []SlotGap, error) {
	slots, gaps := e.fillTeachingPeriods(1, 6, used, true, nil)
	slots, gaps = e.appendQuietPeriod(slots, gaps, 7, e.library, "library")
	slots, gaps = e.appendQuietPeriod(slots, gaps, 8, e.games, "games")
	return slots, gaps, nil
}

// Grades 8-9: periods 1-7 distinct subjects; period 8 is library on
// Monday/Wednesday/Friday and games on Tuesday/Thursday.
func (e *SlotRuleEngine) middleGradePlan(day int, used map[string]bool) ([]PeriodSlot, []SlotGap, error) {
	slots, gaps := e.fillTeachingPeriods(1, 7, used, false, nil)
	if day%2 == 0 {
		slots, gaps = e.appendQuietPeriod(slots, gaps, 8, e.library, "library")
	} else {
		slots, gaps = e.appendQuietPeriod(slots, gaps, 8, e.games, "games")
	}
	return slots, gaps, nil
}

// Grade 10: maths opens and closes the day (periods 1 and 8, same teacher
// through the sticky binding); periods 2-7 hold six distinct non-maths
// subjects.
func (e *SlotRuleEngine) tenthGradePlan(used map[string]bool) ([]PeriodSlot, []SlotGap, error) {
	var slots []PeriodSlot
	var gaps []SlotGap

	if e.maths == nil {
		gaps = append(gaps,
			SlotGap{Period: 1, Subject: "maths", Reason: "no maths subject defined"},
			SlotGap{Period: 8, Subject: "maths", Reason: "no maths subject defined"},
		)
	} else if !used[e.maths.ID] {
		slots = append(slots, PeriodSlot{Period: 1, Subject: *e.maths, RequiresTeacher: true})
		used[e.maths.ID] = true
	}

	middle, middleGaps := e.fillTeachingPeriods(2, 7, used, false, func(s models.Subject) bool {
		return e.maths != nil && s.ID == e.maths.ID
	})
	slots = append(slots, middle...)
	gaps = append(gaps, middleGaps...)

	if e.maths != nil {
		slots = append(slots, PeriodSlot{Period: 8, Subject: *e.maths, RequiresTeacher: true})
	}
	return slots, gaps, nil
}

// fillTeachingPeriods assigns distinct teaching subjects to periods
// [from, to]. With collapseScience set, at most one science-family subject
// is placed per day. skip excludes subjects reserved by the caller. When
// the catalogue runs out of distinct subjects, the remaining periods repeat
// already-placed subjects so the day is always fully planned.
func (e *SlotRuleEngine) fillTeachingPeriods(from, to int, used map[string]bool, collapseScience bool, skip func(models.Subject) bool) ([]PeriodSlot, []SlotGap) {
	var slots []PeriodSlot
	var gaps []SlotGap

	scienceUsed := false
	if collapseScience {
		for id := range used {
			if e.science[id] {
				scienceUsed = true
			}
		}
	}
	repeats := make(map[string]int)

	for period := from; period <= to; period++ {
		placed := false
		for _, subject := range e.teaching {
			if used[subject.ID] {
				continue
			}
			if skip != nil && skip(subject) {
				continue
			}
			if collapseScience && e.science[subject.ID] && scienceUsed {
				continue
			}
			slots = append(slots, PeriodSlot{Period: period, Subject: subject, RequiresTeacher: true})
			used[subject.ID] = true
			if collapseScience && e.science[subject.ID] {
				scienceUsed = true
			}
			placed = true
			break
		}
		if placed {
			continue
		}
		if subject, ok := e.repeatableSubject(repeats, skip, collapseScience); ok {
			slots = append(slots, PeriodSlot{Period: period, Subject: subject, RequiresTeacher: true})
			repeats[subject.ID]++
			continue
		}
		gaps = append(gaps, SlotGap{Period: period, Reason: "no teaching subject available for this period"})
	}
	return slots, gaps
}

// repeatableSubject picks the least-repeated teaching subject eligible for
// another slot today. Science-family subjects never repeat for bands that
// collapse them into a single slot.
func (e *SlotRuleEngine) repeatableSubject(repeats map[string]int, skip func(models.Subject) bool, collapseScience bool) (models.Subject, bool) {
	var best models.Subject
	bestCount := -1
	for _, subject := range e.teaching {
		if skip != nil && skip(subject) {
			continue
		}
		if collapseScience && e.science[subject.ID] {
			continue
		}
		if bestCount == -1 || repeats[subject.ID] < bestCount {
			best = subject
			bestCount = repeats[subject.ID]
		}
	}
	return best, bestCount != -1
}

func (e *SlotRuleEngine) appendQuietPeriod(slots []PeriodSlot, gaps []SlotGap, period int, subject *models.Subject, name string) ([]PeriodSlot, []SlotGap) {
	if subject == nil {
		return slots, append(gaps, SlotGap{Period: period, Subject: name, Reason: fmt.Sprintf("no %s subject defined", name)})
	}
	return append(slots, PeriodSlot{Period: period, Subject: *subject, RequiresTeacher: false}), gaps
}
