package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Benchmark types and scopes.
const (
	BenchmarkTypeIndustry       = "industry"
	BenchmarkTypeOrganizational = "organizational"

	BenchmarkScopeGlobal = "global"
	BenchmarkScopeClient = "client"
)

// Percentiles holds a P10/P25/P50/P75/P90 distribution, stored as JSONB.
type Percentiles map[string]float64

// Value implements driver.Valuer.
func (p Percentiles) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *Percentiles) Scan(src interface{}) error {
	if src == nil {
		*p = Percentiles{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported percentiles source type %T", src)
	}
	return json.Unmarshal(raw, p)
}

// BenchmarkRecord is one population-level statistics row, unique per
// (benchmark_type, benchmark_scope, scope_id) and recomputed wholesale on
// each benchmark run.
type BenchmarkRecord struct {
	BenchmarkType  string  `db:"benchmark_type" json:"benchmark_type"`
	BenchmarkScope string  `db:"benchmark_scope" json:"benchmark_scope"`
	ScopeID        *string `db:"scope_id" json:"scope_id"`

	ContentType     string `db:"content_type" json:"content_type"`
	DifficultyLevel string `db:"difficulty_level" json:"difficulty_level"`

	AvgCompletionTimeHours float64 `db:"avg_completion_time_hours" json:"avg_completion_time_hours"`
	AvgMasteryScore        float64 `db:"avg_mastery_score" json:"avg_mastery_score"`
	AvgEngagementScore     float64 `db:"avg_engagement_score" json:"avg_engagement_score"`
	MedianAttempts         int     `db:"median_attempts" json:"median_attempts"`
	SuccessRatePercentage  float64 `db:"success_rate_percentage" json:"success_rate_percentage"`

	PerformancePercentiles Percentiles `db:"performance_percentiles" json:"performance_percentiles"`
	VelocityPercentiles    Percentiles `db:"velocity_percentiles" json:"velocity_percentiles"`
	EngagementPercentiles  Percentiles `db:"engagement_percentiles" json:"engagement_percentiles"`

	SampleSize            int       `db:"sample_size" json:"sample_size"`
	ComputationPeriodDays int       `db:"computation_period_days" json:"computation_period_days"`
	LastComputed          time.Time `db:"last_computed" json:"last_computed"`
}
