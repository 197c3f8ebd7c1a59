package models

import "time"

// AnalyticsPeriod identifies the aggregation window of a learning analytics
// row.
type AnalyticsPeriod string

const (
	PeriodDaily   AnalyticsPeriod = "daily"
	PeriodWeekly  AnalyticsPeriod = "weekly"
	PeriodMonthly AnalyticsPeriod = "monthly"
)

// Valid reports whether the period is one of the supported values.
func (p AnalyticsPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Window resolves the half-open [start, end) aggregation window for the
// period relative to now. Daily covers yesterday, weekly the trailing seven
// days, monthly the previous calendar month. Boundaries are midnight in now's
// location.
func (p AnalyticsPeriod) Window(now time.Time) (time.Time, time.Time) {
	midnight := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}

	switch p {
	case PeriodWeekly:
		return midnight(now.AddDate(0, 0, -7)), midnight(now)
	case PeriodMonthly:
		thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return thisMonth.AddDate(0, -1, 0), thisMonth
	default:
		return midnight(now.AddDate(0, 0, -1)), midnight(now)
	}
}

// Velocity trend classifications.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// AnalyticsMetrics is the derived metrics payload of one analytics row. It is
// produced by the metric calculator from one user's raw activity for one
// period; every score is on a 0-100 scale unless noted.
type AnalyticsMetrics struct {
	TotalLearningTimeMinutes    int     `db:"total_learning_time_minutes" json:"total_learning_time_minutes"`
	ActiveLearningTimeMinutes   int     `db:"active_learning_time_minutes" json:"active_learning_time_minutes"`
	LearningSessionsCount       int     `db:"learning_sessions_count" json:"learning_sessions_count"`
	BlocksAttempted             int     `db:"blocks_attempted" json:"blocks_attempted"`
	BlocksCompleted             int     `db:"blocks_completed" json:"blocks_completed"`
	BlocksMastered              int     `db:"blocks_mastered" json:"blocks_mastered"`
	AvgLearningVelocity         float64 `db:"avg_learning_velocity" json:"avg_learning_velocity"`
	LearningVelocityTrend       string  `db:"learning_velocity_trend" json:"learning_velocity_trend"`
	ContentConsumptionRate      float64 `db:"content_consumption_rate" json:"content_consumption_rate"`
	AvgEngagementScore          float64 `db:"avg_engagement_score" json:"avg_engagement_score"`
	AvgFocusScore               float64 `db:"avg_focus_score" json:"avg_focus_score"`
	AttentionSpanMinutes        int     `db:"attention_span_minutes" json:"attention_span_minutes"`
	BreakFrequency              float64 `db:"break_frequency" json:"break_frequency"`
	AvgCompletionPercentage     float64 `db:"avg_completion_percentage" json:"avg_completion_percentage"`
	AvgMasteryScore             float64 `db:"avg_mastery_score" json:"avg_mastery_score"`
	PerformanceConsistencyScore float64 `db:"performance_consistency_score" json:"performance_consistency_score"`
	ImprovementRate             float64 `db:"improvement_rate" json:"improvement_rate"`
	AtRiskIndicator             bool    `db:"at_risk_indicator" json:"at_risk_indicator"`
	SuccessProbability          float64 `db:"success_probability" json:"success_probability"`
	DataQualityScore            int     `db:"data_quality_score" json:"data_quality_score"`
}

// UserAnalyticsRecord is one pre-aggregated analytics row, unique per
// (user_id, analytics_period, period_start_date).
type UserAnalyticsRecord struct {
	UserID          string          `db:"user_id" json:"user_id"`
	ClientID        string          `db:"client_id" json:"client_id"`
	AnalyticsPeriod AnalyticsPeriod `db:"analytics_period" json:"analytics_period"`
	PeriodStartDate time.Time       `db:"period_start_date" json:"period_start_date"`
	PeriodEndDate   time.Time       `db:"period_end_date" json:"period_end_date"`

	AnalyticsMetrics

	ComputationTimestamp time.Time `db:"computation_timestamp" json:"computation_timestamp"`
	LastUpdated          time.Time `db:"last_updated" json:"last_updated"`
}
