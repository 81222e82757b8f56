package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ttapp-api/internal/service"
	"github.com/noah-isme/ttapp-api/pkg/response"
)

// StatusHandler exposes aggregate runtime metrics as JSON.
type StatusHandler struct {
	metrics *service.MetricsService
}

// NewStatusHandler constructs a status handler.
func NewStatusHandler(metrics *service.MetricsService) *StatusHandler {
	return &StatusHandler{metrics: metrics}
}

// Snapshot godoc
// @Summary Aggregate runtime metrics snapshot
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /system/metrics [get]
func (h *StatusHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
