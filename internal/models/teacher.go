package models

import "time"

// Teacher represents an instructor record. SubjectIDs carries the set of
// subjects the teacher is eligible to teach, loaded from the
// teacher_subjects join table.
type Teacher struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	IsClassTeacher bool      `db:"is_class_teacher" json:"is_class_teacher"`
	IsLeisure      bool      `db:"is_leisure" json:"is_leisure"`
	SubjectIDs     []string  `db:"-" json:"subject_ids"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// EligibleFor reports whether the teacher may teach the given subject.
func (t Teacher) EligibleFor(subjectID string) bool {
	for _, id := range t.SubjectIDs {
		if id == subjectID {
			return true
		}
	}
	return false
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search         string
	IsClassTeacher *bool
	IsLeisure      *bool
	Page           int
	PageSize       int
}
