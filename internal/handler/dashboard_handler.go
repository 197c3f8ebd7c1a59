package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aigym/analytics-api/internal/dto"
	"github.com/aigym/analytics-api/internal/service"
	appErrors "github.com/aigym/analytics-api/pkg/errors"
	"github.com/aigym/analytics-api/pkg/response"
)

// DashboardHandler exposes the dashboard read endpoint.
type DashboardHandler struct {
	dashboard *service.DashboardService
	logger    *zap.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// Dashboard assembles the requested metric groups.
// @Summary Fetch dashboard analytics
// @Description Builds the requested metric groups from pre-computed analytics and live aggregations
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body dto.DashboardRequest false "Dashboard parameters"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} response.Envelope
// @Router /analytics/dashboard [post]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	if h.dashboard == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	var req dto.DashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrDashboard.Code, appErrors.ErrDashboard.Status, appErrors.ErrDashboard.Message))
		return
	}

	result, err := h.dashboard.Build(c.Request.Context(), req)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("dashboard build failed", zap.Error(err))
		}
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, result)
}
