package models

import "time"

// School week boundaries. Days are indexed 0 (Monday) through 4 (Friday);
// Saturday and Sunday are never scheduled.
const (
	SchoolDays    = 5
	PeriodsPerDay = 8
)

// DayNames maps a school day index to its display name.
var DayNames = [SchoolDays]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// SchoolDayIndex converts a calendar date to the Monday-based day index.
// The second return value is false on weekends.
func SchoolDayIndex(date time.Time) (int, bool) {
	idx := (int(date.Weekday()) + 6) % 7
	if idx >= SchoolDays {
		return idx, false
	}
	return idx, true
}

// Schedule assigns a teacher to a (class, day, period) slot for one subject.
// Rows without a genuine assignment (library, games, unstaffed fallbacks)
// persist the placeholder teacher id with IsPlaceholder set, so readers can
// tell them apart from real teaching commitments. TeacherRequired records
// whether the slot needs a teacher at all.
type Schedule struct {
	ID              string    `db:"id" json:"id"`
	TeacherID       string    `db:"teacher_id" json:"teacher_id"`
	ClassID         string    `db:"class_id" json:"class_id"`
	SubjectID       string    `db:"subject_id" json:"subject_id"`
	Day             int       `db:"day" json:"day"`
	Period          int       `db:"period" json:"period"`
	TeacherRequired bool      `db:"teacher_required" json:"teacher_required"`
	IsPlaceholder   bool      `db:"is_placeholder" json:"is_placeholder"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ScheduleDetail extends Schedule with resolved display names.
type ScheduleDetail struct {
	Schedule
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}
