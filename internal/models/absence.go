package models

import "time"

// Absence records a teacher away for a specific date. It is mutated when a
// substitution is confirmed.
type Absence struct {
	ID                  string    `db:"id" json:"id"`
	TeacherID           string    `db:"teacher_id" json:"teacher_id"`
	Date                time.Time `db:"date" json:"date"`
	IsSubstituted       bool      `db:"is_substituted" json:"is_substituted"`
	SubstituteTeacherID *string   `db:"substitute_teacher_id" json:"substitute_teacher_id,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}
