package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ttapp-api/internal/dto"
	"github.com/noah-isme/ttapp-api/internal/service"
	appErrors "github.com/noah-isme/ttapp-api/pkg/errors"
	"github.com/noah-isme/ttapp-api/pkg/response"
)

// AbsenceHandler handles absence and substitution endpoints.
type AbsenceHandler struct {
	service *service.SubstitutionService
}

// NewAbsenceHandler constructs an absence handler.
func NewAbsenceHandler(svc *service.SubstitutionService) *AbsenceHandler {
	return &AbsenceHandler{service: svc}
}

// MarkAbsent godoc
// @Summary Mark a teacher absent for a date
// @Tags Absences
// @Accept json
// @Produce json
// @Param payload body dto.MarkAbsentRequest true "Absence payload"
// @Success 201 {object} response.Envelope
// @Router /absences [post]
func (h *AbsenceHandler) MarkAbsent(c *gin.Context) {
	var req dto.MarkAbsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	absence, err := h.service.MarkAbsent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, absence)
}

// Board godoc
// @Summary List absences with substitute suggestions for a date
// @Tags Absences
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /absences [get]
func (h *AbsenceHandler) Board(c *gin.Context) {
	board, err := h.service.Board(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// Suggest godoc
// @Summary Suggest substitutes for one absent teacher
// @Tags Absences
// @Produce json
// @Param id path string true "Teacher ID"
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/substitutes [get]
func (h *AbsenceHandler) Suggest(c *gin.Context) {
	suggestions, err := h.service.SuggestForTeacher(c.Request.Context(), c.Param("id"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suggestions, nil)
}

// Confirm godoc
// @Summary Confirm a substitute for an absence
// @Tags Absences
// @Accept json
// @Produce json
// @Param id path string true "Absence ID"
// @Param payload body dto.ConfirmSubstitutionRequest true "Substitution payload"
// @Success 200 {object} response.Envelope
// @Router /absences/{id}/substitute [put]
func (h *AbsenceHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmSubstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	absence, err := h.service.ConfirmSubstitution(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, absence, nil)
}
