package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aigym/analytics-api/internal/models"
)

// AnalyticsFilter scopes reads over pre-computed analytics rows.
type AnalyticsFilter struct {
	Start    time.Time
	End      time.Time
	ClientID string
	UserID   string
}

const analyticsColumns = `user_id, client_id, analytics_period, period_start_date, period_end_date,
        total_learning_time_minutes, active_learning_time_minutes, learning_sessions_count,
        blocks_attempted, blocks_completed, blocks_mastered,
        avg_learning_velocity, learning_velocity_trend, content_consumption_rate,
        avg_engagement_score, avg_focus_score, attention_span_minutes, break_frequency,
        avg_completion_percentage, avg_mastery_score, performance_consistency_score,
        improvement_rate, at_risk_indicator, success_probability, data_quality_score,
        computation_timestamp, last_updated`

// AnalyticsRepository owns the learning_analytics table: idempotent upserts
// from the aggregator and read-optimised queries for the dashboard.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Exists reports whether an analytics row is already present for the key.
func (r *AnalyticsRepository) Exists(ctx context.Context, userID string, period models.AnalyticsPeriod, periodStart time.Time) (bool, error) {
	var exists bool
	query := "SELECT EXISTS (SELECT 1 FROM learning_analytics WHERE user_id = $1 AND analytics_period = $2 AND period_start_date = $3)"
	if err := r.db.GetContext(ctx, &exists, query, userID, period, periodStart); err != nil {
		return false, fmt.Errorf("check analytics existence: %w", err)
	}
	return exists, nil
}

// Upsert merges the record on its (user_id, analytics_period,
// period_start_date) key. The returned flag is true when a new row was
// inserted rather than an existing one overwritten.
func (r *AnalyticsRepository) Upsert(ctx context.Context, rec *models.UserAnalyticsRecord) (bool, error) {
	query := `INSERT INTO learning_analytics (` + analyticsColumns + `)
        VALUES (:user_id, :client_id, :analytics_period, :period_start_date, :period_end_date,
            :total_learning_time_minutes, :active_learning_time_minutes, :learning_sessions_count,
            :blocks_attempted, :blocks_completed, :blocks_mastered,
            :avg_learning_velocity, :learning_velocity_trend, :content_consumption_rate,
            :avg_engagement_score, :avg_focus_score, :attention_span_minutes, :break_frequency,
            :avg_completion_percentage, :avg_mastery_score, :performance_consistency_score,
            :improvement_rate, :at_risk_indicator, :success_probability, :data_quality_score,
            :computation_timestamp, :last_updated)
        ON CONFLICT (user_id, analytics_period, period_start_date) DO UPDATE SET
            client_id = EXCLUDED.client_id,
            period_end_date = EXCLUDED.period_end_date,
            total_learning_time_minutes = EXCLUDED.total_learning_time_minutes,
            active_learning_time_minutes = EXCLUDED.active_learning_time_minutes,
            learning_sessions_count = EXCLUDED.learning_sessions_count,
            blocks_attempted = EXCLUDED.blocks_attempted,
            blocks_completed = EXCLUDED.blocks_completed,
            blocks_mastered = EXCLUDED.blocks_mastered,
            avg_learning_velocity = EXCLUDED.avg_learning_velocity,
            learning_velocity_trend = EXCLUDED.learning_velocity_trend,
            content_consumption_rate = EXCLUDED.content_consumption_rate,
            avg_engagement_score = EXCLUDED.avg_engagement_score,
            avg_focus_score = EXCLUDED.avg_focus_score,
            attention_span_minutes = EXCLUDED.attention_span_minutes,
            break_frequency = EXCLUDED.break_frequency,
            avg_completion_percentage = EXCLUDED.avg_completion_percentage,
            avg_mastery_score = EXCLUDED.avg_mastery_score,
            performance_consistency_score = EXCLUDED.performance_consistency_score,
            improvement_rate = EXCLUDED.improvement_rate,
            at_risk_indicator = EXCLUDED.at_risk_indicator,
            success_probability = EXCLUDED.success_probability,
            data_quality_score = EXCLUDED.data_quality_score,
            computation_timestamp = EXCLUDED.computation_timestamp,
            last_updated = EXCLUDED.last_updated
        RETURNING (xmax = 0) AS created`

	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, rec)
	if err != nil {
		return false, fmt.Errorf("upsert analytics for user %s: %w", rec.UserID, err)
	}
	defer rows.Close()

	var created bool
	if rows.Next() {
		if err := rows.Scan(&created); err != nil {
			return false, fmt.Errorf("scan upsert result: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("upsert analytics for user %s: %w", rec.UserID, err)
	}
	return created, nil
}

// List returns analytics rows whose period lies within the filter range,
// newest computation first.
func (r *AnalyticsRepository) List(ctx context.Context, filter AnalyticsFilter) ([]models.UserAnalyticsRecord, error) {
	var builder strings.Builder
	builder.WriteString("SELECT " + analyticsColumns + " FROM learning_analytics WHERE period_start_date >= $1 AND period_end_date <= $2")
	args := []interface{}{filter.Start, filter.End}
	if filter.ClientID != "" && filter.ClientID != "all" {
		args = append(args, filter.ClientID)
		builder.WriteString(fmt.Sprintf(" AND client_id = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		builder.WriteString(fmt.Sprintf(" AND user_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY computation_timestamp DESC")

	var records []models.UserAnalyticsRecord
	if err := r.db.SelectContext(ctx, &records, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query learning analytics: %w", err)
	}
	return records, nil
}

// ListPredictive returns analytics rows for the predictive projection,
// optionally scoped to a client or a single user. No date filter applies; the
// newest computation per user is what matters downstream.
func (r *AnalyticsRepository) ListPredictive(ctx context.Context, clientID, userID string) ([]models.UserAnalyticsRecord, error) {
	var builder strings.Builder
	builder.WriteString("SELECT " + analyticsColumns + " FROM learning_analytics WHERE 1=1")
	var args []interface{}
	if clientID != "" && clientID != "all" {
		args = append(args, clientID)
		builder.WriteString(fmt.Sprintf(" AND client_id = $%d", len(args)))
	}
	if userID != "" {
		args = append(args, userID)
		builder.WriteString(fmt.Sprintf(" AND user_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY computation_timestamp DESC")

	var records []models.UserAnalyticsRecord
	if err := r.db.SelectContext(ctx, &records, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query predictive analytics: %w", err)
	}
	return records, nil
}

// ListAtRisk returns the rows flagged at risk, optionally scoped to a client.
func (r *AnalyticsRepository) ListAtRisk(ctx context.Context, clientID string) ([]models.UserAnalyticsRecord, error) {
	var builder strings.Builder
	builder.WriteString("SELECT " + analyticsColumns + " FROM learning_analytics WHERE at_risk_indicator = TRUE")
	var args []interface{}
	if clientID != "" && clientID != "all" {
		args = append(args, clientID)
		builder.WriteString(fmt.Sprintf(" AND client_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY computation_timestamp DESC")

	var records []models.UserAnalyticsRecord
	if err := r.db.SelectContext(ctx, &records, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query at-risk analytics: %w", err)
	}
	return records, nil
}

// ListForBenchmark returns up to limit analytics rows for benchmark
// computation, optionally scoped to a client.
func (r *AnalyticsRepository) ListForBenchmark(ctx context.Context, clientID string, limit int) ([]models.UserAnalyticsRecord, error) {
	var builder strings.Builder
	builder.WriteString("SELECT " + analyticsColumns + " FROM learning_analytics")
	var args []interface{}
	if clientID != "" {
		args = append(args, clientID)
		builder.WriteString(fmt.Sprintf(" WHERE client_id = $%d", len(args)))
	}
	args = append(args, limit)
	builder.WriteString(fmt.Sprintf(" ORDER BY computation_timestamp DESC LIMIT $%d", len(args)))

	var records []models.UserAnalyticsRecord
	if err := r.db.SelectContext(ctx, &records, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query analytics for benchmark: %w", err)
	}
	return records, nil
}
