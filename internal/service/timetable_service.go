package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/ttapp-api/internal/dto"
	"github.com/noah-isme/ttapp-api/internal/models"
	appErrors "github.com/noah-isme/ttapp-api/pkg/errors"
)

const weekendMessage = "No classes scheduled: the requested date falls on a weekend."

type timetableTeacherSource interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type timetableClassSource interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type timetableScheduleSource interface {
	ListDetailsByTeacherAndDay(ctx context.Context, teacherID string, day int) ([]models.ScheduleDetail, error)
	ListDetailsByClass(ctx context.Context, classID string) ([]models.ScheduleDetail, error)
}

// TimetableService renders teacher and class timetable views over the
// stored assignment set, with an optional Redis read cache.
type TimetableService struct {
	teachers  timetableTeacherSource
	classes   timetableClassSource
	schedules timetableScheduleSource
	cache     *CacheService
	logger    *zap.Logger
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(teachers timetableTeacherSource, classes timetableClassSource, schedules timetableScheduleSource, cache *CacheService, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{teachers: teachers, classes: classes, schedules: schedules, cache: cache, logger: logger}
}

// TeacherTimetable returns a teacher's periods for the given date. Weekend
// dates return an empty timetable with an explanatory message instead of
// an error.
func (s *TimetableService) TeacherTimetable(ctx context.Context, teacherID, rawDate string) (*dto.TeacherTimetableResponse, error) {
	date, err := resolveDate(rawDate)
	if err != nil {
		return nil, err
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	resp := &dto.TeacherTimetableResponse{
		Teacher:   *teacher,
		Date:      date.Format("2006-01-02"),
		Timetable: []dto.TimetableEntry{},
	}

	day, schoolDay := models.SchoolDayIndex(date)
	if !schoolDay {
		resp.DayName = date.Weekday().String()
		resp.Message = weekendMessage
		return resp, nil
	}
	resp.DayName = models.DayNames[day]

	cacheKey := fmt.Sprintf("timetable:teacher:%s:%d", teacherID, day)
	var cached []dto.TimetableEntry
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		resp.Timetable = cached
		return resp, nil
	}

	details, err := s.schedules.ListDetailsByTeacherAndDay(ctx, teacherID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher timetable")
	}
	for _, d := range details {
		resp.Timetable = append(resp.Timetable, dto.TimetableEntry{
			Period:      d.Period,
			ClassID:     d.ClassID,
			ClassName:   d.ClassName,
			SubjectID:   d.SubjectID,
			SubjectName: d.SubjectName,
		})
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, resp.Timetable, 0)
	}
	return resp, nil
}

// ClassTimetable returns a class's full-week grid ordered by day and
// period. Teacher-less periods leave the teacher name blank.
func (s *TimetableService) ClassTimetable(ctx context.Context, classID string) (*dto.ClassTimetableResponse, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	cacheKey := fmt.Sprintf("timetable:class:%s", classID)
	var cachedDays []dto.ClassTimetableDay
	if hit, _ := s.cache.Get(ctx, cacheKey, &cachedDays); hit {
		return &dto.ClassTimetableResponse{Class: *class, Days: cachedDays}, nil
	}

	details, err := s.schedules.ListDetailsByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class timetable")
	}

	days := buildWeekGrid(details)
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, days, 0)
	}
	return &dto.ClassTimetableResponse{Class: *class, Days: days}, nil
}

func buildWeekGrid(details []models.ScheduleDetail) []dto.ClassTimetableDay {
	byDay := make(map[int][]dto.ClassTimetableCell)
	for _, d := range details {
		cell := dto.ClassTimetableCell{Period: d.Period, SubjectName: d.SubjectName}
		if d.TeacherRequired && !d.IsPlaceholder {
			cell.TeacherName = d.TeacherName
		}
		byDay[d.Day] = append(byDay[d.Day], cell)
	}

	days := make([]dto.ClassTimetableDay, 0, models.SchoolDays)
	for day := 0; day < models.SchoolDays; day++ {
		cells := byDay[day]
		sort.SliceStable(cells, func(i, j int) bool { return cells[i].Period < cells[j].Period })
		if cells == nil {
			cells = []dto.ClassTimetableCell{}
		}
		days = append(days, dto.ClassTimetableDay{
			Day:     day,
			DayName: models.DayNames[day],
			Periods: cells,
		})
	}
	return days
}
