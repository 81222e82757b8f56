package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ttapp-api/internal/models"
)

// ScheduleRepository manages persistence for timetable assignments.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ReplaceAllWithTx clears the schedules table and inserts the new
// assignment set inside the caller's transaction, so a failed write never
// leaves a half-replaced week.
func (r *ScheduleRepository) ReplaceAllWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules`); err != nil {
		return fmt.Errorf("clear schedules: %w", err)
	}

	const query = `INSERT INTO schedules (id, teacher_id, class_id, subject_id, day, period, teacher_required, is_placeholder, created_at)
		VALUES (:id, :teacher_id, :class_id, :subject_id, :day, :period, :teacher_required, :is_placeholder, :created_at)`
	now := time.Now().UTC()
	for i := range schedules {
		if schedules[i].ID == "" {
			schedules[i].ID = uuid.NewString()
		}
		if schedules[i].CreatedAt.IsZero() {
			schedules[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, schedules[i]); err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}
	}
	return nil
}

// ListByDay returns every assignment for one school day.
func (r *ScheduleRepository) ListByDay(ctx context.Context, day int) ([]models.Schedule, error) {
	const query = `SELECT id, teacher_id, class_id, subject_id, day, period, teacher_required, is_placeholder, created_at
		FROM schedules WHERE day = $1 ORDER BY period ASC, class_id ASC`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, day); err != nil {
		return nil, fmt.Errorf("list schedules by day: %w", err)
	}
	return schedules, nil
}

// ListDetailsByTeacherAndDay returns a teacher's assignments for one day
// with display names resolved. Placeholder rows carry the teacher's id
// without a teaching commitment, so they never appear in personal views.
func (r *ScheduleRepository) ListDetailsByTeacherAndDay(ctx context.Context, teacherID string, day int) ([]models.ScheduleDetail, error) {
	const query = `SELECT s.id, s.teacher_id, s.class_id, s.subject_id, s.day, s.period, s.teacher_required, s.is_placeholder, s.created_at,
			t.name AS teacher_name, c.name AS class_name, sub.name AS subject_name
		FROM schedules s
		JOIN teachers t ON t.id = s.teacher_id
		JOIN classes c ON c.id = s.class_id
		JOIN subjects sub ON sub.id = s.subject_id
		WHERE s.teacher_id = $1 AND s.day = $2 AND s.teacher_required = TRUE AND s.is_placeholder = FALSE
		ORDER BY s.period ASC`
	var details []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &details, query, teacherID, day); err != nil {
		return nil, fmt.Errorf("list teacher schedule: %w", err)
	}
	return details, nil
}

// ListDetailsByClass returns a class's full-week assignments with display
// names resolved.
func (r *ScheduleRepository) ListDetailsByClass(ctx context.Context, classID string) ([]models.ScheduleDetail, error) {
	const query = `SELECT s.id, s.teacher_id, s.class_id, s.subject_id, s.day, s.period, s.teacher_required, s.is_placeholder, s.created_at,
			t.name AS teacher_name, c.name AS class_name, sub.name AS subject_name
		FROM schedules s
		JOIN teachers t ON t.id = s.teacher_id
		JOIN classes c ON c.id = s.class_id
		JOIN subjects sub ON sub.id = s.subject_id
		WHERE s.class_id = $1
		ORDER BY s.day ASC, s.period ASC`
	var details []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &details, query, classID); err != nil {
		return nil, fmt.Errorf("list class schedule: %w", err)
	}
	return details, nil
}
