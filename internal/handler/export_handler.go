package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ttapp-api/internal/service"
	"github.com/noah-isme/ttapp-api/pkg/response"
)

// ExportHandler streams timetable exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// ClassTimetable godoc
// @Summary Export a class's weekly timetable
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Class ID"
// @Param format query string false "Export format (csv or pdf, default csv)"
// @Success 200 {file} file
// @Router /classes/{id}/timetable/export [get]
func (h *ExportHandler) ClassTimetable(c *gin.Context) {
	file, err := h.service.ExportClassTimetable(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// TeacherTimetable godoc
// @Summary Export a teacher's timetable for a date
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Teacher ID"
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Param format query string false "Export format (csv or pdf, default csv)"
// @Success 200 {file} file
// @Router /teachers/{id}/timetable/export [get]
func (h *ExportHandler) TeacherTimetable(c *gin.Context) {
	file, err := h.service.ExportTeacherTimetable(c.Request.Context(), c.Param("id"), c.Query("date"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

func serveFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
