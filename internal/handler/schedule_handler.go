package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ttapp-api/internal/service"
	"github.com/noah-isme/ttapp-api/pkg/response"
)

// ScheduleHandler handles timetable generation and read endpoints.
type ScheduleHandler struct {
	generator  *service.ScheduleGeneratorService
	timetables *service.TimetableService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(generator *service.ScheduleGeneratorService, timetables *service.TimetableService) *ScheduleHandler {
	return &ScheduleHandler{generator: generator, timetables: timetables}
}

// Generate godoc
// @Summary Generate the weekly timetable for all classes
// @Description Replaces the stored assignment set in a single transaction and reports unstaffed slots.
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	result, err := h.generator.Generate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// TeacherTimetable godoc
// @Summary Get a teacher's timetable for a date
// @Tags Schedules
// @Produce json
// @Param id path string true "Teacher ID"
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/timetable [get]
func (h *ScheduleHandler) TeacherTimetable(c *gin.Context) {
	timetable, err := h.timetables.TeacherTimetable(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// ClassTimetable godoc
// @Summary Get a class's weekly timetable grid
// @Tags Schedules
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/timetable [get]
func (h *ScheduleHandler) ClassTimetable(c *gin.Context) {
	timetable, err := h.timetables.ClassTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}
