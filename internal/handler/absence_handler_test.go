package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttapp-api/internal/models"
	"github.com/noah-isme/ttapp-api/internal/service"
)

type teacherSourceMock struct {
	teachers []models.Teacher
}

func (m teacherSourceMock) ListAllOrdered(ctx context.Context) ([]models.Teacher, error) {
	return m.teachers, nil
}

func (m teacherSourceMock) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	for _, t := range m.teachers {
		if t.ID == id {
			teacher := t
			return &teacher, nil
		}
	}
	return nil, sql.ErrNoRows
}

type scheduleSourceMock struct{}

func (scheduleSourceMock) ListByDay(ctx context.Context, day int) ([]models.Schedule, error) {
	return nil, nil
}

func (scheduleSourceMock) ListDetailsByTeacherAndDay(ctx context.Context, teacherID string, day int) ([]models.ScheduleDetail, error) {
	return nil, nil
}

type absenceStoreMock struct {
	existing map[string]bool
	created  []models.Absence
}

func (m *absenceStoreMock) ListByDate(ctx context.Context, date time.Time) ([]models.Absence, error) {
	return []models.Absence{}, nil
}

func (m *absenceStoreMock) FindByID(ctx context.Context, id string) (*models.Absence, error) {
	return nil, sql.ErrNoRows
}

func (m *absenceStoreMock) ExistsByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) (bool, error) {
	return m.existing[teacherID], nil
}

func (m *absenceStoreMock) Create(ctx context.Context, absence *models.Absence) error {
	absence.ID = "abs-1"
	m.created = append(m.created, *absence)
	return nil
}

func (m *absenceStoreMock) ConfirmSubstitute(ctx context.Context, absenceID, substituteTeacherID string) error {
	return sql.ErrNoRows
}

func absenceHandlerFixture(store *absenceStoreMock) *AbsenceHandler {
	svc := service.NewSubstitutionService(
		teacherSourceMock{teachers: []models.Teacher{{ID: "t1", Name: "Asha"}}},
		scheduleSourceMock{},
		store,
		nil, nil,
	)
	return NewAbsenceHandler(svc)
}

func TestAbsenceHandlerMarkAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &absenceStoreMock{}
	handler := absenceHandlerFixture(store)

	body := []byte(`{"teacher_id":"t1","date":"2026-08-17"}`)
	req, _ := http.NewRequest(http.MethodPost, "/absences", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.MarkAbsent(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.created, 1)
	require.Equal(t, "t1", store.created[0].TeacherID)
}

func TestAbsenceHandlerMarkAbsentInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := absenceHandlerFixture(&absenceStoreMock{})

	req, _ := http.NewRequest(http.MethodPost, "/absences", bytes.NewReader([]byte(`{"teacher_id":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.MarkAbsent(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAbsenceHandlerMarkAbsentDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := absenceHandlerFixture(&absenceStoreMock{existing: map[string]bool{"t1": true}})

	body := []byte(`{"teacher_id":"t1","date":"2026-08-17"}`)
	req, _ := http.NewRequest(http.MethodPost, "/absences", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.MarkAbsent(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAbsenceHandlerBoard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := absenceHandlerFixture(&absenceStoreMock{})

	req, _ := http.NewRequest(http.MethodGet, "/absences?date=2026-08-17", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Board(c)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Date string `json:"date"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "2026-08-17", envelope.Data.Date)
}
