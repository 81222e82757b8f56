package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttapp-api/internal/models"
)

func TestAbsenceRepositoryListByDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	date := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "date", "is_substituted", "substitute_teacher_id", "created_at"}).
		AddRow("abs-1", "t1", date, false, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM absences WHERE date = $1 ORDER BY created_at ASC, id ASC")).
		WithArgs(date).
		WillReturnRows(rows)

	absences, err := repo.ListByDate(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, absences, 1)
	assert.Equal(t, "t1", absences[0].TeacherID)
	assert.Nil(t, absences[0].SubstituteTeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryExistsByTeacherAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	date := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM absences WHERE teacher_id = $1 AND date = $2 LIMIT 1")).
		WithArgs("t1", date).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err := repo.ExistsByTeacherAndDate(context.Background(), "t1", date)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectExec("INSERT INTO absences").
		WillReturnResult(sqlmock.NewResult(1, 1))

	absence := &models.Absence{TeacherID: "t1", Date: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Create(context.Background(), absence))
	assert.NotEmpty(t, absence.ID)
	assert.False(t, absence.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAbsenceRepositoryConfirmSubstitute(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)

	mock.ExpectExec("UPDATE absences SET is_substituted = TRUE").
		WithArgs("abs-1", "t2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ConfirmSubstitute(context.Background(), "abs-1", "t2"))

	mock.ExpectExec("UPDATE absences SET is_substituted = TRUE").
		WithArgs("ghost", "t2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ConfirmSubstitute(context.Background(), "ghost", "t2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
