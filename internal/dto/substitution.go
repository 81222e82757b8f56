package dto

import "github.com/noah-isme/ttapp-api/internal/models"

// SlotSuggestion lists substitute candidates for one affected period.
type SlotSuggestion struct {
	ClassID     string           `json:"class_id"`
	ClassName   string           `json:"class_name"`
	Period      int              `json:"period"`
	SubjectID   string           `json:"subject_id"`
	SubjectName string           `json:"subject_name"`
	Candidates  []models.Teacher `json:"available_substitutes"`
}

// AbsenceSuggestions pairs an absence with per-slot substitute suggestions.
type AbsenceSuggestions struct {
	AbsenceID     string          `json:"absence_id"`
	Teacher       *models.Teacher `json:"teacher,omitempty"`
	Date          string          `json:"date"`
	IsSubstituted bool            `json:"is_substituted"`
	Slots         []SlotSuggestion `json:"substitution_suggestions"`
}

// AbsenceBoardResponse is the absence overview for one date.
type AbsenceBoardResponse struct {
	Date     string               `json:"date"`
	Absences []AbsenceSuggestions `json:"absences"`
}

// MarkAbsentRequest flags a teacher absent for a date (YYYY-MM-DD,
// defaulting to today when empty).
type MarkAbsentRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// ConfirmSubstitutionRequest records the chosen substitute on an absence.
type ConfirmSubstitutionRequest struct {
	SubstituteTeacherID string `json:"substitute_teacher_id" validate:"required"`
}
