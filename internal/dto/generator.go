package dto

import "github.com/noah-isme/ttapp-api/internal/models"

// UnscheduledSlot describes a slot the generator could not staff properly.
type UnscheduledSlot struct {
	ClassName   string `json:"class_name"`
	Day         int    `json:"day"`
	DayName     string `json:"day_name"`
	Period      int    `json:"period"`
	SubjectName string `json:"subject_name"`
	Reason      string `json:"reason"`
}

// GenerateReport accumulates per-slot diagnostics for a generation run.
// Unscheduled lists teaching slots that fell back to the placeholder
// teacher; Skipped lists slots dropped because a distinguished subject
// (library, games, maths) is not defined; MissingSubjects lists subjects
// no teacher is eligible to teach.
type GenerateReport struct {
	Unscheduled     []UnscheduledSlot `json:"unscheduled"`
	Skipped         []UnscheduledSlot `json:"skipped"`
	MissingSubjects []string          `json:"missing_subjects"`
}

// GenerateScheduleResponse returns the written timetable and its report.
type GenerateScheduleResponse struct {
	Assignments      []models.Schedule `json:"assignments"`
	UnscheduledCount int               `json:"unscheduled_count"`
	Report           GenerateReport    `json:"report"`
}
