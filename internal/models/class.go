package models

import "time"

// Class represents a class section. Grade must be set before timetable
// generation runs; ClassTeacherID optionally designates the homeroom
// teacher who takes the first period on the first weekday.
type Class struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Grade          *int      `db:"grade" json:"grade,omitempty"`
	ClassTeacherID *string   `db:"class_teacher_id" json:"class_teacher_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with the resolved class-teacher name.
type ClassDetail struct {
	Class
	ClassTeacherName *string `db:"class_teacher_name" json:"class_teacher_name,omitempty"`
}
