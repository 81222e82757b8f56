package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttapp-api/internal/models"
	appErrors "github.com/noah-isme/ttapp-api/pkg/errors"
)

type teacherSourceStub struct {
	teachers []models.Teacher
	err      error
}

func (s teacherSourceStub) ListAllOrdered(ctx context.Context) ([]models.Teacher, error) {
	return s.teachers, s.err
}

type classSourceStub struct {
	classes []models.Class
	err     error
}

func (s classSourceStub) ListAllOrdered(ctx context.Context) ([]models.Class, error) {
	return s.classes, s.err
}

type subjectSourceStub struct {
	subjects []models.Subject
	err      error
}

func (s subjectSourceStub) ListAll(ctx context.Context) ([]models.Subject, error) {
	return s.subjects, s.err
}

type scheduleWriterStub struct {
	written []models.Schedule
	err     error
}

func (s *scheduleWriterStub) ReplaceAllWithTx(ctx context.Context, tx *sqlx.Tx, schedules []models.Schedule) error {
	if s.err != nil {
		return s.err
	}
	s.written = append([]models.Schedule(nil), schedules...)
	return nil
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (p *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

func teacherFixture(id, name string, subjectIDs ...string) models.Teacher {
	return models.Teacher{ID: id, Name: name, SubjectIDs: subjectIDs}
}

func gradePtr(g int) *int { return &g }

type generatorFixture struct {
	teachers []models.Teacher
	classes  []models.Class
	subjects []models.Subject
	writer   *scheduleWriterStub
	mock     sqlmock.Sqlmock
	service  *ScheduleGeneratorService
}

func newGeneratorFixture(t *testing.T, teachers []models.Teacher, classes []models.Class, subjects []models.Subject) *generatorFixture {
	tx, mock := newTxProviderMock(t)
	writer := &scheduleWriterStub{}
	svc := NewScheduleGeneratorService(
		teacherSourceStub{teachers: teachers},
		classSourceStub{classes: classes},
		subjectSourceStub{subjects: subjects},
		writer, tx, nil, nil, nil, nil,
	)
	return &generatorFixture{teachers: teachers, classes: classes, subjects: subjects, writer: writer, mock: mock, service: svc}
}

func fullWeekSubjects() []models.Subject {
	return []models.Subject{
		subjectFixture("lib", "Library"),
		subjectFixture("gam", "Games"),
		subjectFixture("mat", "Maths"),
		subjectFixture("eng", "English"),
		subjectFixture("hin", "Hindi"),
		subjectFixture("sci", "Science"),
		subjectFixture("soc", "Social"),
		subjectFixture("geo", "Geography"),
	}
}

func TestGenerateSingleClassFullWeek(t *testing.T) {
	teachers := []models.Teacher{
		teacherFixture("t1", "Asha", "mat", "eng"),
		teacherFixture("t2", "Bina", "hin", "sci"),
		teacherFixture("t3", "Chitra", "soc", "geo"),
	}
	classes := []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7)}}
	fx := newGeneratorFixture(t, teachers, classes, fullWeekSubjects())
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)

	assert.Len(t, resp.Assignments, models.SchoolDays*models.PeriodsPerDay)
	assert.Zero(t, resp.UnscheduledCount)
	assert.Empty(t, resp.Report.Unscheduled)
	assert.Empty(t, resp.Report.Skipped)
	assert.Empty(t, resp.Report.MissingSubjects)
	assert.Equal(t, resp.Assignments, fx.writer.written)

	for day := 0; day < models.SchoolDays; day++ {
		seen := map[string]bool{}
		for _, a := range resp.Assignments {
			if a.Day != day {
				continue
			}
			assert.False(t, seen[a.SubjectID], "subject %s repeated on day %d", a.SubjectID, day)
			seen[a.SubjectID] = true

			switch a.Period {
			case 7:
				assert.Equal(t, "lib", a.SubjectID)
				assert.False(t, a.TeacherRequired)
				assert.True(t, a.IsPlaceholder)
			case 8:
				assert.Equal(t, "gam", a.SubjectID)
				assert.False(t, a.TeacherRequired)
				assert.True(t, a.IsPlaceholder)
			default:
				assert.True(t, a.TeacherRequired)
				assert.False(t, a.IsPlaceholder)
				assert.Contains(t, []string{"t1", "t2", "t3"}, a.TeacherID)
			}
		}
	}
}

func TestGenerateFillsEveryPeriodWithShortCatalogue(t *testing.T) {
	// Five teaching subjects for a grade-7 class that needs six: every
	// period must still be written, with one subject taught twice rather
	// than a hole in the day.
	teachers := []models.Teacher{
		teacherFixture("t1", "Asha", "mat", "eng"),
		teacherFixture("t2", "Bina", "hin", "sci"),
		teacherFixture("t3", "Chitra", "soc", "eng"),
	}
	classes := []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7)}}
	subjects := []models.Subject{
		subjectFixture("lib", "Library"),
		subjectFixture("gam", "Games"),
		subjectFixture("mat", "Maths"),
		subjectFixture("eng", "English"),
		subjectFixture("hin", "Hindi"),
		subjectFixture("sci", "Science"),
		subjectFixture("soc", "Social"),
	}
	fx := newGeneratorFixture(t, teachers, classes, subjects)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)

	assert.Len(t, resp.Assignments, models.SchoolDays*models.PeriodsPerDay)
	assert.Empty(t, resp.Report.Skipped)
	assert.Empty(t, resp.Report.MissingSubjects)

	mondayPeriods := map[int]bool{}
	for _, a := range resp.Assignments {
		if a.Day == 0 {
			mondayPeriods[a.Period] = true
		}
	}
	for period := 1; period <= models.PeriodsPerDay; period++ {
		assert.True(t, mondayPeriods[period], "period %d missing from Monday", period)
	}
}

func TestGenerateStickyBindingHoldsAcrossWeek(t *testing.T) {
	teachers := []models.Teacher{
		teacherFixture("t1", "Asha", "mat", "eng"),
		teacherFixture("t2", "Bina", "hin", "sci"),
		teacherFixture("t3", "Chitra", "soc", "geo"),
	}
	classes := []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7)}}
	fx := newGeneratorFixture(t, teachers, classes, fullWeekSubjects())
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)

	bySubject := map[string]string{}
	for _, a := range resp.Assignments {
		if !a.TeacherRequired {
			continue
		}
		if bound, ok := bySubject[a.SubjectID]; ok {
			assert.Equal(t, bound, a.TeacherID, "subject %s switched teachers mid-week", a.SubjectID)
		} else {
			bySubject[a.SubjectID] = a.TeacherID
		}
	}
}

func TestGenerateConflictFreeAcrossClasses(t *testing.T) {
	teachers := []models.Teacher{
		teacherFixture("t1", "Asha", "mat", "eng", "hin", "sci", "soc", "geo"),
		teacherFixture("t2", "Bina", "mat", "eng", "hin", "sci", "soc", "geo"),
		teacherFixture("t3", "Chitra", "mat", "eng", "hin", "sci", "soc", "geo"),
	}
	classes := []models.Class{
		{ID: "c1", Name: "7A", Grade: gradePtr(7)},
		{ID: "c2", Name: "7B", Grade: gradePtr(7)},
	}
	fx := newGeneratorFixture(t, teachers, classes, fullWeekSubjects())
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)

	type slot struct {
		day, period int
		teacher     string
	}
	occupied := map[slot]string{}
	for _, a := range resp.Assignments {
		if !a.TeacherRequired {
			continue
		}
		key := slot{a.Day, a.Period, a.TeacherID}
		if class, ok := occupied[key]; ok {
			assert.Equal(t, class, a.ClassID, "teacher %s double-booked at day %d period %d", a.TeacherID, a.Day, a.Period)
		} else {
			occupied[key] = a.ClassID
		}
	}
}

func TestGenerateClassTeacherTakesFirstPeriodFirstDay(t *testing.T) {
	ctID := "t3"
	teachers := []models.Teacher{
		teacherFixture("t1", "Asha", "mat", "eng"),
		teacherFixture("t2", "Bina", "hin", "sci"),
		teacherFixture("t3", "Chitra", "soc", "geo"),
	}
	teachers[2].IsClassTeacher = true
	classes := []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7), ClassTeacherID: &ctID}}
	fx := newGeneratorFixture(t, teachers, classes, fullWeekSubjects())
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)

	for _, a := range resp.Assignments {
		if a.Day == 0 && a.Period == 1 {
			assert.Equal(t, ctID, a.TeacherID)
			return
		}
	}
	t.Fatal("no assignment found for day 0 period 1")
}

func TestGeneratePlaceholderFallbackIsReported(t *testing.T) {
	// Nobody teaches Geography, so its slot falls back to the first
	// non-leisure teacher and is counted as unscheduled.
	teachers := []models.Teacher{
		teacherFixture("t1", "Asha", "mat", "eng"),
		teacherFixture("t2", "Bina", "hin", "sci"),
		teacherFixture("t3", "Chitra", "soc"),
	}
	classes := []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7)}}
	fx := newGeneratorFixture(t, teachers, classes, fullWeekSubjects())
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)

	assert.Greater(t, resp.UnscheduledCount, 0)
	assert.Contains(t, resp.Report.MissingSubjects, "no teacher teaches Geography")

	found := false
	for _, a := range resp.Assignments {
		if a.SubjectID == "geo" {
			found = true
			assert.Equal(t, "t1", a.TeacherID, "placeholder must be the first non-leisure teacher")
			assert.True(t, a.TeacherRequired)
			assert.True(t, a.IsPlaceholder, "fallback rows must not read as genuine assignments")
		}
	}
	assert.True(t, found)
}

func TestGenerateLeisureTeachersNeverScheduled(t *testing.T) {
	teachers := []models.Teacher{
		teacherFixture("t1", "Asha", "mat", "eng"),
		teacherFixture("t2", "Bina", "hin", "sci"),
		teacherFixture("t3", "Chitra", "soc", "geo"),
		teacherFixture("t4", "Devi", "mat", "eng", "hin", "sci", "soc", "geo"),
	}
	teachers[3].IsLeisure = true
	classes := []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7)}}
	fx := newGeneratorFixture(t, teachers, classes, fullWeekSubjects())
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)

	for _, a := range resp.Assignments {
		assert.NotEqual(t, "t4", a.TeacherID)
	}
}

func TestGeneratePreconditions(t *testing.T) {
	teachers := []models.Teacher{teacherFixture("t1", "Asha", "mat")}
	subjects := fullWeekSubjects()

	cases := []struct {
		name     string
		teachers []models.Teacher
		classes  []models.Class
		subjects []models.Subject
	}{
		{
			name:     "no non-leisure teachers",
			teachers: []models.Teacher{{ID: "t1", Name: "Asha", IsLeisure: true}},
			classes:  []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7)}},
			subjects: subjects,
		},
		{
			name:     "no classes",
			teachers: teachers,
			classes:  nil,
			subjects: subjects,
		},
		{
			name:     "no subjects",
			teachers: teachers,
			classes:  []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7)}},
			subjects: nil,
		},
		{
			name:     "grade unset",
			teachers: teachers,
			classes:  []models.Class{{ID: "c1", Name: "7A"}},
			subjects: subjects,
		},
		{
			name:     "grade outside bands",
			teachers: teachers,
			classes:  []models.Class{{ID: "c1", Name: "3A", Grade: gradePtr(3)}},
			subjects: subjects,
		},
		{
			name:     "unknown class teacher",
			teachers: teachers,
			classes: []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7), ClassTeacherID: func() *string {
				v := "ghost"
				return &v
			}()}},
			subjects: subjects,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newGeneratorFixture(t, tc.teachers, tc.classes, tc.subjects)
			_, err := fx.service.Generate(context.Background())
			require.Error(t, err)

			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
			assert.Empty(t, fx.writer.written, "precondition failures must write nothing")
		})
	}
}

func TestGenerateRollsBackOnWriteFailure(t *testing.T) {
	teachers := []models.Teacher{
		teacherFixture("t1", "Asha", "mat", "eng"),
		teacherFixture("t2", "Bina", "hin", "sci"),
		teacherFixture("t3", "Chitra", "soc", "geo"),
	}
	classes := []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7)}}
	fx := newGeneratorFixture(t, teachers, classes, fullWeekSubjects())
	fx.writer.err = errors.New("disk full")
	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	_, err := fx.service.Generate(context.Background())
	require.Error(t, err)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestGenerateIsRepeatable(t *testing.T) {
	teachers := []models.Teacher{
		teacherFixture("t1", "Asha", "mat", "eng"),
		teacherFixture("t2", "Bina", "hin", "sci"),
		teacherFixture("t3", "Chitra", "soc", "geo"),
	}
	classes := []models.Class{{ID: "c1", Name: "7A", Grade: gradePtr(7)}}

	fx1 := newGeneratorFixture(t, teachers, classes, fullWeekSubjects())
	fx1.mock.ExpectBegin()
	fx1.mock.ExpectCommit()
	first, err := fx1.service.Generate(context.Background())
	require.NoError(t, err)

	fx2 := newGeneratorFixture(t, teachers, classes, fullWeekSubjects())
	fx2.mock.ExpectBegin()
	fx2.mock.ExpectCommit()
	second, err := fx2.service.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, second.Assignments, len(first.Assignments))
	for i := range first.Assignments {
		assert.Equal(t, first.Assignments[i].TeacherID, second.Assignments[i].TeacherID)
		assert.Equal(t, first.Assignments[i].SubjectID, second.Assignments[i].SubjectID)
		assert.Equal(t, first.Assignments[i].Day, second.Assignments[i].Day)
		assert.Equal(t, first.Assignments[i].Period, second.Assignments[i].Period)
	}
}
