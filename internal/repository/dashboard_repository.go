package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aigym/analytics-api/internal/dto"
	"github.com/aigym/analytics-api/internal/models"
)

// DashboardRepository exposes the read-optimised queries behind the
// dashboard's remaining metric groups (counts, rankings, per-block and
// per-path aggregations over raw activity).
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository instantiates the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// CountUsers returns the number of users, optionally scoped to a client.
func (r *DashboardRepository) CountUsers(ctx context.Context, clientID string) (int, error) {
	var builder strings.Builder
	builder.WriteString("SELECT COUNT(*) FROM users")
	var args []interface{}
	if clientID != "" && clientID != "all" {
		args = append(args, clientID)
		builder.WriteString(fmt.Sprintf(" WHERE client_id = $%d", len(args)))
	}
	var count int
	if err := r.db.GetContext(ctx, &count, builder.String(), args...); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CountPublishedContent returns the number of published content items.
func (r *DashboardRepository) CountPublishedContent(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM content_items WHERE status = 'published'"); err != nil {
		return 0, fmt.Errorf("count content items: %w", err)
	}
	return count, nil
}

// CountActivities returns the number of activity events in the range.
func (r *DashboardRepository) CountActivities(ctx context.Context, start, end time.Time, clientID string) (int, error) {
	var builder strings.Builder
	builder.WriteString("SELECT COUNT(*) FROM user_activities WHERE created_at >= $1 AND created_at <= $2")
	args := []interface{}{start, end}
	if clientID != "" && clientID != "all" {
		args = append(args, clientID)
		builder.WriteString(fmt.Sprintf(" AND client_id = $%d", len(args)))
	}
	var count int
	if err := r.db.GetContext(ctx, &count, builder.String(), args...); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return count, nil
}

// RecentActivity returns the newest activity events in the range.
func (r *DashboardRepository) RecentActivity(ctx context.Context, start, end time.Time, clientID string, limit int) ([]models.UserActivity, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT id, user_id, client_id, activity_type, created_at
        FROM user_activities WHERE created_at >= $1 AND created_at <= $2`)
	args := []interface{}{start, end}
	if clientID != "" && clientID != "all" {
		args = append(args, clientID)
		builder.WriteString(fmt.Sprintf(" AND client_id = $%d", len(args)))
	}
	args = append(args, limit)
	builder.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)))

	var rows []models.UserActivity
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query recent activity: %w", err)
	}
	return rows, nil
}

// ActivityRanking returns the most active users in the range with their
// activity volume and diversity.
func (r *DashboardRepository) ActivityRanking(ctx context.Context, start, end time.Time, clientID string, limit int) ([]dto.ActivityRankingEntry, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT a.user_id, u.first_name, u.last_name, u.email,
        COUNT(*) AS activity_count,
        ARRAY_AGG(DISTINCT a.activity_type) AS activity_types,
        COUNT(DISTINCT a.activity_type) AS engagement_diversity,
        MAX(a.created_at) AS last_activity
        FROM user_activities a
        JOIN users u ON u.id = a.user_id
        WHERE a.created_at >= $1 AND a.created_at <= $2`)
	args := []interface{}{start, end}
	if clientID != "" && clientID != "all" {
		args = append(args, clientID)
		builder.WriteString(fmt.Sprintf(" AND a.client_id = $%d", len(args)))
	}
	args = append(args, limit)
	builder.WriteString(fmt.Sprintf(" GROUP BY a.user_id, u.first_name, u.last_name, u.email ORDER BY activity_count DESC LIMIT $%d", len(args)))

	var rows []dto.ActivityRankingEntry
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query activity ranking: %w", err)
	}
	return rows, nil
}

// ContentEngagement aggregates block completions per content block, ordered
// by average engagement.
func (r *DashboardRepository) ContentEngagement(ctx context.Context, start, end time.Time, clientID string) ([]dto.ContentEngagementEntry, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT block_id,
        COUNT(*) AS total_engagements,
        COALESCE(AVG(content_engagement_score), 0) AS avg_engagement,
        SUM(CASE WHEN completion_status IN ('completed', 'mastered') THEN 1 ELSE 0 END)::DECIMAL / COUNT(*) AS completion_rate,
        COALESCE(SUM(total_time_spent_seconds), 0)::DECIMAL / COUNT(*) AS avg_time_per_engagement
        FROM block_completions
        WHERE created_at >= $1 AND created_at <= $2`)
	args := []interface{}{start, end}
	if clientID != "" && clientID != "all" {
		args = append(args, clientID)
		builder.WriteString(fmt.Sprintf(" AND client_id = $%d", len(args)))
	}
	builder.WriteString(" GROUP BY block_id ORDER BY avg_engagement DESC")

	var rows []dto.ContentEngagementEntry
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query content engagement: %w", err)
	}
	return rows, nil
}

// PathEffectiveness summarises user progress per content type within the
// range.
func (r *DashboardRepository) PathEffectiveness(ctx context.Context, start, end time.Time, clientID string) ([]dto.PathEffectivenessEntry, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT COALESCE(progress_type, 'courses') AS progress_type,
        COUNT(*) AS total,
        SUM(CASE WHEN completion_percentage >= 100 THEN 1 ELSE 0 END) AS completed,
        COALESCE(AVG(completion_percentage), 0) AS avg_completion,
        SUM(CASE WHEN completion_percentage >= 100 THEN 1 ELSE 0 END)::DECIMAL / COUNT(*) AS completion_rate
        FROM user_progress
        WHERE updated_at >= $1 AND updated_at <= $2`)
	args := []interface{}{start, end}
	if clientID != "" && clientID != "all" {
		args = append(args, clientID)
		builder.WriteString(fmt.Sprintf(" AND client_id = $%d", len(args)))
	}
	builder.WriteString(" GROUP BY COALESCE(progress_type, 'courses') ORDER BY progress_type")

	var rows []dto.PathEffectivenessEntry
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query path effectiveness: %w", err)
	}
	return rows, nil
}
