package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aigym/analytics-api/internal/models"
)

// RawActivityRepository reads the instrumentation-owned activity tables for
// one user and time window. All queries are read-only.
type RawActivityRepository struct {
	db *sqlx.DB
}

// NewRawActivityRepository instantiates the repository.
func NewRawActivityRepository(db *sqlx.DB) *RawActivityRepository {
	return &RawActivityRepository{db: db}
}

// BlockCompletions returns the user's block completions inside [start, end).
func (r *RawActivityRepository) BlockCompletions(ctx context.Context, userID string, start, end time.Time) ([]models.BlockCompletion, error) {
	var rows []models.BlockCompletion
	query := `SELECT id, user_id, client_id, block_id, completion_status, completion_percentage,
        content_engagement_score, mastery_score, total_time_spent_seconds, created_at
        FROM block_completions
        WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
        ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("query block completions: %w", err)
	}
	return rows, nil
}

// LearningSessions returns the user's sessions started inside [start, end),
// in chronological order.
func (r *RawActivityRepository) LearningSessions(ctx context.Context, userID string, start, end time.Time) ([]models.LearningSession, error) {
	var rows []models.LearningSession
	query := `SELECT id, user_id, client_id, started_at, total_duration_seconds, active_duration_seconds,
        learning_velocity, focus_score, attention_span_minutes, break_count
        FROM learning_sessions
        WHERE user_id = $1 AND started_at >= $2 AND started_at < $3
        ORDER BY started_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("query learning sessions: %w", err)
	}
	return rows, nil
}

// PerformanceHistory returns the user's graded outcomes inside [start, end).
func (r *RawActivityRepository) PerformanceHistory(ctx context.Context, userID string, start, end time.Time) ([]models.PerformanceEntry, error) {
	var rows []models.PerformanceEntry
	query := `SELECT id, user_id, score, is_improvement, completed_at
        FROM performance_history
        WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3
        ORDER BY completed_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("query performance history: %w", err)
	}
	return rows, nil
}

// UserActivities returns the user's generic activity events inside [start, end).
func (r *RawActivityRepository) UserActivities(ctx context.Context, userID string, start, end time.Time) ([]models.UserActivity, error) {
	var rows []models.UserActivity
	query := `SELECT id, user_id, client_id, activity_type, created_at
        FROM user_activities
        WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
        ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &rows, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("query user activities: %w", err)
	}
	return rows, nil
}
