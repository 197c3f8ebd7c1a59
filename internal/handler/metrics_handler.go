package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aigym/analytics-api/internal/service"
	appErrors "github.com/aigym/analytics-api/pkg/errors"
	"github.com/aigym/analytics-api/pkg/response"
)

// MetricsHandler exposes a lightweight service stats snapshot.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs the handler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot returns aggregated service counters.
// @Summary Service stats snapshot
// @Tags system
// @Produce json
// @Success 200 {object} models.SystemMetrics
// @Router /system/stats [get]
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	if h.metrics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}
