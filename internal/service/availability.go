package service

import "github.com/noah-isme/ttapp-api/internal/models"

type slotKey struct {
	Day    int
	Period int
}

type slotOccupant struct {
	TeacherID string
	ClassID   string
}

// AvailabilityIndex tracks which teachers are committed at each
// (day, period) across all classes. Placeholder rows (library, games,
// unstaffed fallbacks) never occupy the index: their persisted teacher id
// carries no teaching commitment.
type AvailabilityIndex struct {
	busy map[slotKey][]slotOccupant
}

// NewAvailabilityIndex builds the index from existing assignment records.
func NewAvailabilityIndex(schedules []models.Schedule) *AvailabilityIndex {
	ix := &AvailabilityIndex{busy: make(map[slotKey][]slotOccupant)}
	for _, s := range schedules {
		if !s.TeacherRequired || s.IsPlaceholder {
			continue
		}
		ix.Reserve(s.TeacherID, s.ClassID, s.Day, s.Period)
	}
	return ix
}

// Reserve marks a teacher committed at (day, period) for a class.
func (ix *AvailabilityIndex) Reserve(teacherID, classID string, day, period int) {
	key := slotKey{Day: day, Period: period}
	ix.busy[key] = append(ix.busy[key], slotOccupant{TeacherID: teacherID, ClassID: classID})
}

// BusyTeachers returns the teacher IDs committed at (day, period) for any
// class other than excludeClassID. Passing an empty excludeClassID returns
// every committed teacher, which is what the substitution advisor needs.
func (ix *AvailabilityIndex) BusyTeachers(day, period int, excludeClassID string) map[string]bool {
	result := make(map[string]bool)
	for _, occ := range ix.busy[slotKey{Day: day, Period: period}] {
		if excludeClassID != "" && occ.ClassID == excludeClassID {
			continue
		}
		result[occ.TeacherID] = true
	}
	return result
}
