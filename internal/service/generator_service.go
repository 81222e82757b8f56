package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/ttapp-api/internal/dto"
	"github.com/noah-isme/ttapp-api/internal/models"
	appErrors "github.com/noah-isme/ttapp-api/pkg/errors"
)

type generatorTeacherSource interface {
	ListAllOrdered(ctx context.Context) ([]models.Teacher, error)
}

type generatorClassSource interface {
	ListAllOrdered(ctx context.Context) ([]models.Class, error)
}

type generatorSubjectSource interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type scheduleWriter interface {
	ReplaceAllWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// teacherRef is a tagged teacher reference: either a real assignment or
// unassigned (materialised as the placeholder teacher on write).
type teacherRef struct {
	id       string
	assigned bool
}

func assignedTo(id string) teacherRef { return teacherRef{id: id, assigned: true} }

// generationRun holds the mutable state of a single generation run: the
// sticky class -> subject -> teacher bindings, the availability index and
// the accumulating output. It is created per run and discarded after
// commit, never shared.
type generationRun struct {
	placeholder models.Teacher
	sticky      map[string]map[string]string
	index       *AvailabilityIndex
	assignments []models.Schedule
	report      dto.GenerateReport
}

func newGenerationRun(placeholder models.Teacher) *generationRun {
	return &generationRun{
		placeholder: placeholder,
		sticky:      make(map[string]map[string]string),
		index:       NewAvailabilityIndex(nil),
		report: dto.GenerateReport{
			Unscheduled:     []dto.UnscheduledSlot{},
			Skipped:         []dto.UnscheduledSlot{},
			MissingSubjects: []string{},
		},
	}
}

func (r *generationRun) boundTeacher(classID, subjectID string) (string, bool) {
	if bindings, ok := r.sticky[classID]; ok {
		id, ok := bindings[subjectID]
		return id, ok
	}
	return "", false
}

func (r *generationRun) bind(classID, subjectID, teacherID string) {
	if r.sticky[classID] == nil {
		r.sticky[classID] = make(map[string]string)
	}
	r.sticky[classID][subjectID] = teacherID
}

func (r *generationRun) record(classID string, slot PeriodSlot, day int, teacher teacherRef) {
	teacherID := r.placeholder.ID
	if teacher.assigned {
		teacherID = teacher.id
	}
	r.assignments = append(r.assignments, models.Schedule{
		TeacherID:       teacherID,
		ClassID:         classID,
		SubjectID:       slot.Subject.ID,
		Day:             day,
		Period:          slot.Period,
		TeacherRequired: slot.RequiresTeacher,
		IsPlaceholder:   !teacher.assigned,
	})
	if teacher.assigned && slot.RequiresTeacher {
		r.index.Reserve(teacher.id, classID, day, slot.Period)
	}
}

// ScheduleGeneratorService builds the weekly timetable for every class and
// replaces the stored assignment set in one transaction. Runs are
// serialized: concurrent generation would race on delete-then-insert.
type ScheduleGeneratorService struct {
	teachers  generatorTeacherSource
	classes   generatorClassSource
	subjects  generatorSubjectSource
	schedules scheduleWriter
	tx        txProvider
	picker    TeacherPicker
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger

	mu sync.Mutex
}

// NewScheduleGeneratorService wires generator dependencies.
func NewScheduleGeneratorService(
	teachers generatorTeacherSource,
	classes generatorClassSource,
	subjects generatorSubjectSource,
	schedules scheduleWriter,
	tx txProvider,
	picker TeacherPicker,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *ScheduleGeneratorService {
	if picker == nil {
		picker = firstFitPicker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGeneratorService{
		teachers:  teachers,
		classes:   classes,
		subjects:  subjects,
		schedules: schedules,
		tx:        tx,
		picker:    picker,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// Generate runs the full scheduling pipeline: snapshot the store, walk the
// five school days class by class, and commit the resulting assignment set
// atomically. Per-slot staffing gaps never fail the run; they accumulate
// in the report.
func (s *ScheduleGeneratorService) Generate(ctx context.Context) (*dto.GenerateScheduleResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	resp, err := s.generate(ctx)
	if err != nil {
		s.metrics.ObserveGeneration("failure", time.Since(start))
		return nil, err
	}
	s.metrics.ObserveGeneration("success", time.Since(start))
	return resp, nil
}

func (s *ScheduleGeneratorService) generate(ctx context.Context) (*dto.GenerateScheduleResponse, error) {
	teachers, err := s.teachers.ListAllOrdered(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	classes, err := s.classes.ListAllOrdered(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}

	pool := schedulablePool(teachers)
	engine := NewSlotRuleEngine(subjects)
	if err := checkPreconditions(pool, classes, subjects, teachers, engine); err != nil {
		return nil, err
	}

	run := newGenerationRun(pool[0])
	noteMissingSubjects(run, engine, pool)

	for day := 0; day < models.SchoolDays; day++ {
		for _, class := range classes {
			s.planClassDay(run, engine, pool, class, day)
		}
	}

	if err := s.persist(ctx, run.assignments); err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, "timetable:*")
	}

	s.logger.Info("schedule generated",
		zap.Int("assignments", len(run.assignments)),
		zap.Int("unscheduled", len(run.report.Unscheduled)),
		zap.Int("classes", len(classes)),
	)

	return &dto.GenerateScheduleResponse{
		Assignments:      run.assignments,
		UnscheduledCount: len(run.report.Unscheduled),
		Report:           run.report,
	}, nil
}

func (s *ScheduleGeneratorService) planClassDay(run *generationRun, engine *SlotRuleEngine, pool []models.Teacher, class models.Class, day int) {
	used := make(map[string]bool)
	plan, gaps, err := engine.DayPlan(*class.Grade, day, used)
	if err != nil {
		// Grades are validated up front; reaching here means the band
		// table changed underneath us.
		run.report.Skipped = append(run.report.Skipped, dto.UnscheduledSlot{
			ClassName: class.Name, Day: day, DayName: models.DayNames[day], Reason: err.Error(),
		})
		return
	}
	for _, gap := range gaps {
		run.report.Skipped = append(run.report.Skipped, dto.UnscheduledSlot{
			ClassName:   class.Name,
			Day:         day,
			DayName:     models.DayNames[day],
			Period:      gap.Period,
			SubjectName: gap.Subject,
			Reason:      gap.Reason,
		})
	}

	for i, slot := range plan {
		if !slot.RequiresTeacher {
			run.record(class.ID, slot, day, teacherRef{})
			continue
		}

		busy := run.index.BusyTeachers(day, slot.Period, class.ID)

		// Class-teacher pass: first weekday only, period 1 goes to the
		// designated class teacher with the day's first unused subject.
		if day == 0 && i == 0 && slot.Period == 1 {
			if ct, ok := classTeacherFor(class, pool); ok && !busy[ct.ID] {
				run.bind(class.ID, slot.Subject.ID, ct.ID)
				run.record(class.ID, slot, day, assignedTo(ct.ID))
				continue
			}
		}

		// Sticky binding wins over re-selection: the same teacher keeps
		// a (class, subject) pair all week. If that teacher is committed
		// elsewhere at this slot, the slot goes unstaffed rather than
		// double-booked or handed to a second teacher.
		if teacherID, ok := run.boundTeacher(class.ID, slot.Subject.ID); ok {
			if busy[teacherID] {
				run.record(class.ID, slot, day, teacherRef{})
				run.report.Unscheduled = append(run.report.Unscheduled, dto.UnscheduledSlot{
					ClassName:   class.Name,
					Day:         day,
					DayName:     models.DayNames[day],
					Period:      slot.Period,
					SubjectName: slot.Subject.Name,
					Reason:      "assigned teacher is committed elsewhere at this slot",
				})
				continue
			}
			run.record(class.ID, slot, day, assignedTo(teacherID))
			continue
		}

		candidates := eligibleAndFree(pool, slot.Subject.ID, busy)
		if len(candidates) == 0 {
			run.record(class.ID, slot, day, teacherRef{})
			run.report.Unscheduled = append(run.report.Unscheduled, dto.UnscheduledSlot{
				ClassName:   class.Name,
				Day:         day,
				DayName:     models.DayNames[day],
				Period:      slot.Period,
				SubjectName: slot.Subject.Name,
				Reason:      "no eligible teacher free at this slot",
			})
			continue
		}

		picked := s.picker.Pick(candidates)
		run.bind(class.ID, slot.Subject.ID, picked.ID)
		run.record(class.ID, slot, day, assignedTo(picked.ID))
	}
}

func (s *ScheduleGeneratorService) persist(ctx context.Context, assignments []models.Schedule) error {
	start := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err := s.schedules.ReplaceAllWithTx(ctx, tx, assignments); err != nil {
		_ = tx.Rollback()
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace schedules")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedules")
	}
	s.metrics.ObserveDBQuery("replace_schedules", time.Since(start))
	return nil
}

func checkPreconditions(pool []models.Teacher, classes []models.Class, subjects []models.Subject, all []models.Teacher, engine *SlotRuleEngine) error {
	if len(pool) == 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "need at least one non-leisure teacher to generate schedules")
	}
	if len(classes) == 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "need at least one class to generate schedules")
	}
	if len(subjects) == 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "need at least one subject to generate schedules")
	}
	teacherIDs := make(map[string]bool, len(all))
	for _, t := range all {
		teacherIDs[t.ID] = true
	}
	for _, class := range classes {
		if class.Grade == nil {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("class %s has no grade set", class.Name))
		}
		if !engine.SupportsGrade(*class.Grade) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("class %s: no slot rules defined for grade %d", class.Name, *class.Grade))
		}
		if class.ClassTeacherID != nil && !teacherIDs[*class.ClassTeacherID] {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("class %s references an unknown class teacher", class.Name))
		}
	}
	return nil
}

func noteMissingSubjects(run *generationRun, engine *SlotRuleEngine, pool []models.Teacher) {
	for _, subject := range engine.TeachingSubjects() {
		taught := false
		for _, t := range pool {
			if t.EligibleFor(subject.ID) {
				taught = true
				break
			}
		}
		if !taught {
			run.report.MissingSubjects = append(run.report.MissingSubjects, fmt.Sprintf("no teacher teaches %s", subject.Name))
		}
	}
}

func schedulablePool(teachers []models.Teacher) []models.Teacher {
	pool := make([]models.Teacher, 0, len(teachers))
	for _, t := range teachers {
		if !t.IsLeisure {
			pool = append(pool, t)
		}
	}
	return pool
}

func classTeacherFor(class models.Class, pool []models.Teacher) (models.Teacher, bool) {
	if class.ClassTeacherID == nil {
		return models.Teacher{}, false
	}
	for _, t := range pool {
		if t.ID == *class.ClassTeacherID {
			return t, true
		}
	}
	return models.Teacher{}, false
}

func eligibleAndFree(pool []models.Teacher, subjectID string, busy map[string]bool) []models.Teacher {
	var candidates []models.Teacher
	for _, t := range pool {
		if busy[t.ID] {
			continue
		}
		if t.EligibleFor(subjectID) {
			candidates = append(candidates, t)
		}
	}
	return candidates
}
