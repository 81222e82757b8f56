package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ttapp-api/internal/dto"
	"github.com/noah-isme/ttapp-api/internal/models"
	appErrors "github.com/noah-isme/ttapp-api/pkg/errors"
)

const maxSubstituteCandidates = 2

type substitutionTeacherSource interface {
	ListAllOrdered(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type substitutionScheduleSource interface {
	ListByDay(ctx context.Context, day int) ([]models.Schedule, error)
	ListDetailsByTeacherAndDay(ctx context.Context, teacherID string, day int) ([]models.ScheduleDetail, error)
}

type absenceStore interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.Absence, error)
	FindByID(ctx context.Context, id string) (*models.Absence, error)
	ExistsByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) (bool, error)
	Create(ctx context.Context, absence *models.Absence) error
	ConfirmSubstitute(ctx context.Context, absenceID, substituteTeacherID string) error
}

// SubstitutionService records teacher absences and recommends substitutes
// for every period the absent teacher would have taught.
type SubstitutionService struct {
	teachers  substitutionTeacherSource
	schedules substitutionScheduleSource
	absences  absenceStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubstitutionService wires substitution dependencies.
func NewSubstitutionService(teachers substitutionTeacherSource, schedules substitutionScheduleSource, absences absenceStore, validate *validator.Validate, logger *zap.Logger) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstitutionService{teachers: teachers, schedules: schedules, absences: absences, validator: validate, logger: logger}
}

// MarkAbsent records a teacher away for the given date. An empty date
// means today. Marking the same teacher twice for one date conflicts.
func (s *SubstitutionService) MarkAbsent(ctx context.Context, req dto.MarkAbsentRequest) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}

	date, err := resolveDate(req.Date)
	if err != nil {
		return nil, err
	}

	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	exists, err := s.absences.ExistsByTeacherAndDate(ctx, req.TeacherID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing absence")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher is already marked absent for this date")
	}

	absence := &models.Absence{TeacherID: req.TeacherID, Date: date}
	if err := s.absences.Create(ctx, absence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record absence")
	}

	s.logger.Info("teacher marked absent",
		zap.String("teacher_id", req.TeacherID),
		zap.String("date", date.Format("2006-01-02")),
	)
	return absence, nil
}

// Board lists the absences for a date alongside substitute suggestions for
// every affected period.
func (s *SubstitutionService) Board(ctx context.Context, rawDate string) (*dto.AbsenceBoardResponse, error) {
	date, err := resolveDate(rawDate)
	if err != nil {
		return nil, err
	}

	absences, err := s.absences.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absences")
	}

	teachers, err := s.teachers.ListAllOrdered(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	byID := make(map[string]models.Teacher, len(teachers))
	for _, t := range teachers {
		byID[t.ID] = t
	}

	board := &dto.AbsenceBoardResponse{
		Date:     date.Format("2006-01-02"),
		Absences: []dto.AbsenceSuggestions{},
	}

	day, schoolDay := models.SchoolDayIndex(date)
	if !schoolDay {
		// Weekend absences are recorded but have no affected periods.
		for _, absence := range absences {
			entry := dto.AbsenceSuggestions{
				AbsenceID:     absence.ID,
				Date:          board.Date,
				IsSubstituted: absence.IsSubstituted,
				Slots:         []dto.SlotSuggestion{},
			}
			if t, ok := byID[absence.TeacherID]; ok {
				teacher := t
				entry.Teacher = &teacher
			}
			board.Absences = append(board.Absences, entry)
		}
		return board, nil
	}

	daySchedules, err := s.schedules.ListByDay(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day schedule")
	}
	index := NewAvailabilityIndex(daySchedules)

	absentIDs := make(map[string]bool, len(absences))
	for _, absence := range absences {
		absentIDs[absence.TeacherID] = true
	}

	for _, absence := range absences {
		slots, err := s.suggestSlots(ctx, absence.TeacherID, day, teachers, absentIDs, index)
		if err != nil {
			return nil, err
		}
		entry := dto.AbsenceSuggestions{
			AbsenceID:     absence.ID,
			Date:          board.Date,
			IsSubstituted: absence.IsSubstituted,
			Slots:         slots,
		}
		if t, ok := byID[absence.TeacherID]; ok {
			teacher := t
			entry.Teacher = &teacher
		}
		board.Absences = append(board.Absences, entry)
	}
	return board, nil
}

// SuggestForTeacher returns per-slot suggestions for one absent teacher on
// a date.
func (s *SubstitutionService) SuggestForTeacher(ctx context.Context, teacherID, rawDate string) ([]dto.SlotSuggestion, error) {
	date, err := resolveDate(rawDate)
	if err != nil {
		return nil, err
	}
	day, schoolDay := models.SchoolDayIndex(date)
	if !schoolDay {
		return []dto.SlotSuggestion{}, nil
	}

	teachers, err := s.teachers.ListAllOrdered(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	daySchedules, err := s.schedules.ListByDay(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day schedule")
	}
	absences, err := s.absences.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absences")
	}
	absentIDs := make(map[string]bool, len(absences))
	for _, absence := range absences {
		absentIDs[absence.TeacherID] = true
	}

	return s.suggestSlots(ctx, teacherID, day, teachers, absentIDs, NewAvailabilityIndex(daySchedules))
}

// ConfirmSubstitution records the chosen substitute on an absence.
func (s *SubstitutionService) ConfirmSubstitution(ctx context.Context, absenceID string, req dto.ConfirmSubstitutionRequest) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitution payload")
	}

	absence, err := s.absences.FindByID(ctx, absenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence")
	}
	if absence.TeacherID == req.SubstituteTeacherID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "absent teacher cannot substitute for themselves")
	}
	if _, err := s.teachers.FindByID(ctx, req.SubstituteTeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitute teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitute teacher")
	}

	if err := s.absences.ConfirmSubstitute(ctx, absenceID, req.SubstituteTeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm substitution")
	}

	absence.IsSubstituted = true
	absence.SubstituteTeacherID = &req.SubstituteTeacherID
	s.logger.Info("substitution confirmed",
		zap.String("absence_id", absenceID),
		zap.String("substitute_teacher_id", req.SubstituteTeacherID),
	)
	return absence, nil
}

// suggestSlots finds every period the absent teacher would teach that day
// and picks up to two free, present, non-leisure substitutes per period in
// stable name order.
func (s *SubstitutionService) suggestSlots(ctx context.Context, teacherID string, day int, teachers []models.Teacher, absentIDs map[string]bool, index *AvailabilityIndex) ([]dto.SlotSuggestion, error) {
	affected, err := s.schedules.ListDetailsByTeacherAndDay(ctx, teacherID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load affected periods")
	}

	suggestions := make([]dto.SlotSuggestion, 0, len(affected))
	for _, slot := range affected {
		busy := index.BusyTeachers(day, slot.Period, "")
		var candidates []models.Teacher
		for _, t := range teachers {
			if len(candidates) == maxSubstituteCandidates {
				break
			}
			if t.ID == teacherID || t.IsLeisure || absentIDs[t.ID] || busy[t.ID] {
				continue
			}
			candidates = append(candidates, t)
		}
		if candidates == nil {
			candidates = []models.Teacher{}
		}
		suggestions = append(suggestions, dto.SlotSuggestion{
			ClassID:     slot.ClassID,
			ClassName:   slot.ClassName,
			Period:      slot.Period,
			SubjectID:   slot.SubjectID,
			SubjectName: slot.SubjectName,
			Candidates:  candidates,
		})
	}
	return suggestions, nil
}

func resolveDate(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
	}
	return date, nil
}
