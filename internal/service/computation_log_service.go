package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aigym/analytics-api/internal/models"
	"github.com/aigym/analytics-api/pkg/clock"
)

// ComputationLogRepository abstracts persistence for the computation audit
// trail.
type ComputationLogRepository interface {
	Create(ctx context.Context, entry *models.ComputationLogEntry) error
	MarkCompleted(ctx context.Context, id string, completedAt time.Time, recordsProcessed, recordsUpdated, errorsCount, durationSeconds int, performance models.JSONMap) error
	MarkFailed(ctx context.Context, id string, completedAt time.Time, durationSeconds int, details models.JSONMap) error
}

// ComputationLogService records the lifecycle of aggregation runs. Logging is
// best effort: a failure to write the trail degrades the run to an unlogged
// one instead of failing it.
type ComputationLogService struct {
	repo   ComputationLogRepository
	clock  clock.Clock
	logger *zap.Logger
}

// NewComputationLogService constructs the service.
func NewComputationLogService(repo ComputationLogRepository, clk clock.Clock, logger *zap.Logger) *ComputationLogService {
	if clk == nil {
		clk = clock.System()
	}
	return &ComputationLogService{repo: repo, clock: clk, logger: logger}
}

// Start opens a running log entry and returns its id. An empty id signals
// degraded mode; Complete and Fail become no-ops for it.
func (s *ComputationLogService) Start(ctx context.Context, computationType models.ComputationType, clientID, userID string) string {
	scope := "global"
	var scopeID *string
	switch {
	case userID != "":
		scope = "user"
		scopeID = &userID
	case clientID != "":
		scope = "client"
		scopeID = &clientID
	}

	entry := &models.ComputationLogEntry{
		ComputationType:  computationType,
		ComputationScope: scope,
		ScopeID:          scopeID,
		Status:           models.ComputationStatusRunning,
		StartedAt:        s.clock.Now(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if s.logger != nil {
			s.logger.Warn("computation log unavailable, continuing unlogged",
				zap.String("computation_type", string(computationType)),
				zap.Error(err))
		}
		return ""
	}
	return entry.ID
}

// RunOutcome carries the totals Complete persists.
type RunOutcome struct {
	RecordsProcessed int
	RecordsUpdated   int
	Errors           int
	Batches          int
}

// Complete closes the entry as successful and attaches derived run
// performance figures.
func (s *ComputationLogService) Complete(ctx context.Context, logID string, outcome RunOutcome, duration time.Duration) {
	if logID == "" {
		return
	}

	seconds := int(duration.Seconds())
	batches := outcome.Batches
	if batches < 1 {
		batches = 1
	}
	processedFloor := outcome.RecordsProcessed
	if processedFloor < 1 {
		processedFloor = 1
	}
	successRate := 100.0
	if outcome.RecordsProcessed > 0 {
		successRate = float64(outcome.RecordsProcessed-outcome.Errors) / float64(outcome.RecordsProcessed) * 100
	}

	performance := models.JSONMap{
		"batches_processed":   batches,
		"avg_processing_time": float64(seconds) / float64(processedFloor),
		"success_rate":        successRate,
	}

	err := s.repo.MarkCompleted(ctx, logID, s.clock.Now(),
		outcome.RecordsProcessed, outcome.RecordsUpdated, outcome.Errors, seconds, performance)
	if err != nil && s.logger != nil {
		s.logger.Warn("failed to close computation log", zap.String("log_id", logID), zap.Error(err))
	}
}

// Fail closes the entry as failed with the triggering error attached.
func (s *ComputationLogService) Fail(ctx context.Context, logID string, runErr error, duration time.Duration) {
	if logID == "" {
		return
	}

	details := models.JSONMap{
		"message": runErr.Error(),
		"stack":   fmt.Sprintf("%+v", runErr),
	}
	err := s.repo.MarkFailed(ctx, logID, s.clock.Now(), int(duration.Seconds()), details)
	if err != nil && s.logger != nil {
		s.logger.Warn("failed to record computation failure", zap.String("log_id", logID), zap.Error(err))
	}
}
