package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aigym/analytics-api/internal/models"
)

// ComputationLogRepository owns the analytics_computation_log audit table.
type ComputationLogRepository struct {
	db *sqlx.DB
}

// NewComputationLogRepository instantiates the repository.
func NewComputationLogRepository(db *sqlx.DB) *ComputationLogRepository {
	return &ComputationLogRepository{db: db}
}

// Create inserts a running log entry and returns its id.
func (r *ComputationLogRepository) Create(ctx context.Context, entry *models.ComputationLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = models.ComputationStatusRunning
	}
	query := `INSERT INTO analytics_computation_log (id, computation_type, computation_scope, scope_id, status, started_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, entry.ID, entry.ComputationType, entry.ComputationScope, entry.ScopeID, entry.Status, entry.StartedAt); err != nil {
		return fmt.Errorf("insert computation log: %w", err)
	}
	return nil
}

// MarkCompleted finalises a running entry as completed. The guard on status
// keeps terminal entries immutable.
func (r *ComputationLogRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time, recordsProcessed, recordsUpdated, errorsCount, durationSeconds int, performance models.JSONMap) error {
	query := `UPDATE analytics_computation_log
        SET status = $1, completed_at = $2, records_processed = $3, records_updated = $4,
            errors_count = $5, computation_duration_seconds = $6, performance_metrics = $7
        WHERE id = $8 AND status = $9`
	if _, err := r.db.ExecContext(ctx, query, models.ComputationStatusCompleted, completedAt,
		recordsProcessed, recordsUpdated, errorsCount, durationSeconds, performance,
		id, models.ComputationStatusRunning); err != nil {
		return fmt.Errorf("complete computation log %s: %w", id, err)
	}
	return nil
}

// MarkFailed finalises a running entry as failed with error detail.
func (r *ComputationLogRepository) MarkFailed(ctx context.Context, id string, completedAt time.Time, durationSeconds int, details models.JSONMap) error {
	query := `UPDATE analytics_computation_log
        SET status = $1, completed_at = $2, errors_count = 1, computation_duration_seconds = $3, error_details = $4
        WHERE id = $5 AND status = $6`
	if _, err := r.db.ExecContext(ctx, query, models.ComputationStatusFailed, completedAt,
		durationSeconds, details, id, models.ComputationStatusRunning); err != nil {
		return fmt.Errorf("fail computation log %s: %w", id, err)
	}
	return nil
}
