package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/aigym/analytics-api/internal/models"
)

const benchmarkColumns = `benchmark_type, benchmark_scope, scope_id, content_type, difficulty_level,
        avg_completion_time_hours, avg_mastery_score, avg_engagement_score, median_attempts,
        success_rate_percentage, performance_percentiles, velocity_percentiles, engagement_percentiles,
        sample_size, computation_period_days, last_computed`

// BenchmarkRepository owns the performance_benchmarks table.
type BenchmarkRepository struct {
	db *sqlx.DB
}

// NewBenchmarkRepository instantiates the repository.
func NewBenchmarkRepository(db *sqlx.DB) *BenchmarkRepository {
	return &BenchmarkRepository{db: db}
}

// Upsert merges the benchmark on its (benchmark_type, benchmark_scope,
// scope_id) key, replacing the previous statistics wholesale. The returned
// flag is true when a fresh row was inserted rather than an existing one
// replaced.
func (r *BenchmarkRepository) Upsert(ctx context.Context, rec *models.BenchmarkRecord) (bool, error) {
	query := `INSERT INTO performance_benchmarks (` + benchmarkColumns + `)
        VALUES (:benchmark_type, :benchmark_scope, :scope_id, :content_type, :difficulty_level,
            :avg_completion_time_hours, :avg_mastery_score, :avg_engagement_score, :median_attempts,
            :success_rate_percentage, :performance_percentiles, :velocity_percentiles, :engagement_percentiles,
            :sample_size, :computation_period_days, :last_computed)
        ON CONFLICT (benchmark_type, benchmark_scope, scope_id) DO UPDATE SET
            content_type = EXCLUDED.content_type,
            difficulty_level = EXCLUDED.difficulty_level,
            avg_completion_time_hours = EXCLUDED.avg_completion_time_hours,
            avg_mastery_score = EXCLUDED.avg_mastery_score,
            avg_engagement_score = EXCLUDED.avg_engagement_score,
            median_attempts = EXCLUDED.median_attempts,
            success_rate_percentage = EXCLUDED.success_rate_percentage,
            performance_percentiles = EXCLUDED.performance_percentiles,
            velocity_percentiles = EXCLUDED.velocity_percentiles,
            engagement_percentiles = EXCLUDED.engagement_percentiles,
            sample_size = EXCLUDED.sample_size,
            computation_period_days = EXCLUDED.computation_period_days,
            last_computed = EXCLUDED.last_computed
        RETURNING (xmax = 0) AS created`

	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, rec)
	if err != nil {
		return false, fmt.Errorf("upsert %s benchmark: %w", rec.BenchmarkType, err)
	}
	defer rows.Close()

	var created bool
	if rows.Next() {
		if err := rows.Scan(&created); err != nil {
			return false, fmt.Errorf("scan benchmark upsert result: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("upsert %s benchmark: %w", rec.BenchmarkType, err)
	}
	return created, nil
}

// ListByScope returns benchmark rows for the requested scope, optionally
// restricted to one scope id.
func (r *BenchmarkRepository) ListByScope(ctx context.Context, scope string, scopeID string) ([]models.BenchmarkRecord, error) {
	var builder strings.Builder
	builder.WriteString("SELECT " + benchmarkColumns + " FROM performance_benchmarks WHERE benchmark_scope = $1")
	args := []interface{}{scope}
	if scopeID != "" {
		args = append(args, scopeID)
		builder.WriteString(fmt.Sprintf(" AND scope_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY benchmark_type")

	var records []models.BenchmarkRecord
	if err := r.db.SelectContext(ctx, &records, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query benchmarks: %w", err)
	}
	return records, nil
}
