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

// ComputationHandler exposes the analytics computation trigger.
type ComputationHandler struct {
	aggregation *service.AggregationService
	logger      *zap.Logger
}

// NewComputationHandler constructs the handler.
func NewComputationHandler(aggregation *service.AggregationService, logger *zap.Logger) *ComputationHandler {
	return &ComputationHandler{aggregation: aggregation, logger: logger}
}

// Compute triggers an aggregation run.
// @Summary Trigger analytics computation
// @Description Runs the requested aggregation pipeline and reports per-run results
// @Tags analytics
// @Accept json
// @Produce json
// @Param request body dto.ComputationRequest false "Computation parameters"
// @Success 200 {object} dto.ComputationResponse
// @Failure 500 {object} response.Envelope
// @Router /analytics/compute [post]
func (h *ComputationHandler) Compute(c *gin.Context) {
	if h.aggregation == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	// An unreadable body falls back to the default daily run rather than
	// failing the trigger.
	var req dto.ComputationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = dto.ComputationRequest{}
	}

	result, err := h.aggregation.Run(c.Request.Context(), req)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("analytics computation failed", zap.Error(err))
		}
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, result)
}
