package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ttapp-api/internal/models"
)

// TeacherRepository manages persistence for teachers and their subject
// eligibility rows.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters along with total count. Subject
// eligibility is attached to every returned row.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.IsClassTeacher != nil {
		conditions = append(conditions, fmt.Sprintf("is_class_teacher = $%d", len(args)+1))
		args = append(args, *filter.IsClassTeacher)
	}
	if filter.IsLeisure != nil {
		conditions = append(conditions, fmt.Sprintf("is_leisure = $%d", len(args)+1))
		args = append(args, *filter.IsLeisure)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, is_class_teacher, is_leisure, created_at, updated_at %s ORDER BY name ASC, id ASC LIMIT %d OFFSET %d", base, size, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	if err := r.attachSubjects(ctx, teachers); err != nil {
		return nil, 0, err
	}
	return teachers, total, nil
}

// ListAllOrdered returns every teacher in name order with subjects
// attached. The generator and substitution advisor depend on this ordering
// for deterministic candidate enumeration.
func (r *TeacherRepository) ListAllOrdered(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, name, is_class_teacher, is_leisure, created_at, updated_at FROM teachers ORDER BY name ASC, id ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list all teachers: %w", err)
	}
	if err := r.attachSubjects(ctx, teachers); err != nil {
		return nil, err
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID with subjects attached.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, name, is_class_teacher, is_leisure, created_at, updated_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	list := []models.Teacher{teacher}
	if err := r.attachSubjects(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ExistsByName checks if another teacher uses the same name.
func (r *TeacherRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM teachers WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher name: %w", err)
	}
	return true, nil
}

// Create inserts a teacher and its subject eligibility rows in one
// transaction.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT INTO teachers (id, name, is_class_teacher, is_leisure, created_at, updated_at)
		VALUES (:id, :name, :is_class_teacher, :is_leisure, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	if err := replaceTeacherSubjects(ctx, tx, teacher.ID, teacher.SubjectIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Update modifies a teacher record and replaces its subject set.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update teacher: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `UPDATE teachers SET name = :name, is_class_teacher = :is_class_teacher, is_leisure = :is_leisure, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	if err := replaceTeacherSubjects(ctx, tx, teacher.ID, teacher.SubjectIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a teacher and its eligibility rows.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete teacher: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, id); err != nil {
		return fmt.Errorf("delete teacher subjects: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return tx.Commit()
}

func replaceTeacherSubjects(ctx context.Context, tx *sqlx.Tx, teacherID string, subjectIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("clear teacher subjects: %w", err)
	}
	for _, subjectID := range subjectIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO teacher_subjects (teacher_id, subject_id) VALUES ($1, $2)`, teacherID, subjectID); err != nil {
			return fmt.Errorf("insert teacher subject: %w", err)
		}
	}
	return nil
}

type teacherSubjectRow struct {
	TeacherID string `db:"teacher_id"`
	SubjectID string `db:"subject_id"`
}

func (r *TeacherRepository) attachSubjects(ctx context.Context, teachers []models.Teacher) error {
	if len(teachers) == 0 {
		return nil
	}
	ids := make([]string, len(teachers))
	for i, t := range teachers {
		ids[i] = t.ID
	}
	query, args, err := sqlx.In(`SELECT teacher_id, subject_id FROM teacher_subjects WHERE teacher_id IN (?) ORDER BY subject_id ASC`, ids)
	if err != nil {
		return fmt.Errorf("build teacher subjects query: %w", err)
	}
	var rows []teacherSubjectRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("load teacher subjects: %w", err)
	}
	bySubject := make(map[string][]string, len(teachers))
	for _, row := range rows {
		bySubject[row.TeacherID] = append(bySubject[row.TeacherID], row.SubjectID)
	}
	for i := range teachers {
		teachers[i].SubjectIDs = bySubject[teachers[i].ID]
	}
	return nil
}
