package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ttapp-api/internal/models"
)

// AbsenceRepository manages persistence for teacher absences.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs an AbsenceRepository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// ListByDate returns absences recorded for a calendar date, oldest first.
func (r *AbsenceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.Absence, error) {
	const query = `SELECT id, teacher_id, date, is_substituted, substitute_teacher_id, created_at
		FROM absences WHERE date = $1 ORDER BY created_at ASC, id ASC`
	var absences []models.Absence
	if err := r.db.SelectContext(ctx, &absences, query, date); err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	return absences, nil
}

// FindByID fetches an absence by ID.
func (r *AbsenceRepository) FindByID(ctx context.Context, id string) (*models.Absence, error) {
	const query = `SELECT id, teacher_id, date, is_substituted, substitute_teacher_id, created_at
		FROM absences WHERE id = $1`
	var absence models.Absence
	if err := r.db.GetContext(ctx, &absence, query, id); err != nil {
		return nil, err
	}
	return &absence, nil
}

// ExistsByTeacherAndDate checks whether the teacher is already marked
// absent on the date.
func (r *AbsenceRepository) ExistsByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) (bool, error) {
	const query = `SELECT 1 FROM absences WHERE teacher_id = $1 AND date = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, date); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check absence: %w", err)
	}
	return true, nil
}

// Create inserts a new absence record.
func (r *AbsenceRepository) Create(ctx context.Context, absence *models.Absence) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	if absence.CreatedAt.IsZero() {
		absence.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO absences (id, teacher_id, date, is_substituted, substitute_teacher_id, created_at)
		VALUES (:id, :teacher_id, :date, :is_substituted, :substitute_teacher_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, absence); err != nil {
		return fmt.Errorf("create absence: %w", err)
	}
	return nil
}

// ConfirmSubstitute records the chosen substitute on an absence.
func (r *AbsenceRepository) ConfirmSubstitute(ctx context.Context, absenceID, substituteTeacherID string) error {
	const query = `UPDATE absences SET is_substituted = TRUE, substitute_teacher_id = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, absenceID, substituteTeacherID)
	if err != nil {
		return fmt.Errorf("confirm substitute: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
