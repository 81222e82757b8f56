package dto

import "github.com/noah-isme/ttapp-api/internal/models"

// TimetableEntry is one period in a teacher's day.
type TimetableEntry struct {
	Period      int    `json:"period"`
	ClassID     string `json:"class_id"`
	ClassName   string `json:"class_name"`
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
}

// TeacherTimetableResponse is a teacher's timetable for one date.
type TeacherTimetableResponse struct {
	Teacher   models.Teacher   `json:"teacher"`
	Date      string           `json:"date"`
	DayName   string           `json:"day_name"`
	Timetable []TimetableEntry `json:"timetable"`
	Message   string           `json:"message,omitempty"`
}

// ClassTimetableCell is one period in a class's day grid. Teacher-less
// periods (library, games) leave TeacherName empty.
type ClassTimetableCell struct {
	Period      int    `json:"period"`
	SubjectName string `json:"subject_name"`
	TeacherName string `json:"teacher_name,omitempty"`
}

// ClassTimetableDay groups cells for one school day.
type ClassTimetableDay struct {
	Day     int                  `json:"day"`
	DayName string               `json:"day_name"`
	Periods []ClassTimetableCell `json:"periods"`
}

// ClassTimetableResponse is a class's full-week grid.
type ClassTimetableResponse struct {
	Class models.Class        `json:"class"`
	Days  []ClassTimetableDay `json:"days"`
}
