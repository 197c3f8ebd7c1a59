package dto

import (
	"time"

	"github.com/lib/pq"

	"github.com/aigym/analytics-api/internal/models"
)

// Metric group names the dashboard request may ask for. Unknown names are
// ignored.
const (
	MetricSummaryStats        = "summary_stats"
	MetricLearningAnalytics   = "learning_analytics"
	MetricBenchmarks          = "performance_benchmarks"
	MetricVelocityEngagement  = "velocity_engagement"
	MetricPredictiveInsights  = "predictive_insights"
	MetricAtRiskLearners      = "at_risk_learners"
	MetricUserActivity        = "user_activity"
	MetricRecentActivity      = "recent_activity"
	MetricContentEngagement   = "content_engagement"
	MetricPathEffectiveness   = "learning_path_effectiveness"
)

// DateRange bounds a dashboard query.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DashboardRequest selects the metric groups and scope of a dashboard read.
type DashboardRequest struct {
	ClientID       string     `json:"clientId"`
	UserID         string     `json:"userId"`
	DateRange      *DateRange `json:"dateRange"`
	Metrics        []string   `json:"metrics"`
	AnalyticsType  string     `json:"analyticsType" validate:"omitempty,oneof=dashboard individual comparative predictive"`
	BenchmarkScope string     `json:"benchmarkScope" validate:"omitempty,oneof=global client peer"`
}

// AnalyticsSummary is the on-read aggregate over pre-computed analytics rows.
type AnalyticsSummary struct {
	TotalUsers          int     `json:"totalUsers"`
	AvgLearningVelocity float64 `json:"avgLearningVelocity"`
	AvgEngagementScore  float64 `json:"avgEngagementScore"`
	TotalLearningTime   int     `json:"totalLearningTime"`
	CompletionRate      float64 `json:"completionRate"`
	AtRiskCount         int     `json:"atRiskCount"`
	DataFreshness       string  `json:"dataFreshness,omitempty"`
}

// AnalyticsInsights carries the short natural-language findings derived on
// read.
type AnalyticsInsights struct {
	KeyInsights       []string `json:"key_insights"`
	Recommendations   []string `json:"recommendations"`
	PerformanceTrends string   `json:"performance_trends"`
	DataQuality       string   `json:"data_quality,omitempty"`
}

// VelocityMetric is one analytics row decorated with derived velocity and
// efficiency figures.
type VelocityMetric struct {
	models.UserAnalyticsRecord

	BlocksPerHour      float64 `json:"blocks_per_hour"`
	EngagementVelocity float64 `json:"engagement_velocity"`
	LearningEfficiency float64 `json:"learning_efficiency"`
	VelocityTrendScore int     `json:"velocity_trend_score"`
	EfficiencyRating   string  `json:"efficiency_rating"`
}

// VelocitySummary aggregates the decorated velocity rows.
type VelocitySummary struct {
	TotalUsers            int     `json:"totalUsers"`
	AvgVelocity           float64 `json:"avgVelocity"`
	AvgEngagementVelocity float64 `json:"avgEngagementVelocity"`
	TopPerformerCount     int     `json:"topPerformerCount"`
	ImprovingUsersCount   int     `json:"improvingUsersCount"`
	ImprovementRate       float64 `json:"improvementRate"`
}

// VelocityTrends summarises trend direction across users.
type VelocityTrends struct {
	OverallTrend      string         `json:"overall_trend"`
	TrendDistribution map[string]int `json:"trend_distribution"`
	VelocityPatterns  []string       `json:"velocity_patterns"`
	HighVelocityUsers int            `json:"high_velocity_users"`
}

// SummaryStats carries the top-level platform counters.
type SummaryStats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalContent     int `json:"totalContent"`
	RecentActivities int `json:"recentActivities"`
}

// ActivityRankingEntry ranks one user by activity volume in the range.
type ActivityRankingEntry struct {
	UserID              string         `db:"user_id" json:"user_id"`
	FirstName           string         `db:"first_name" json:"first_name"`
	LastName            string         `db:"last_name" json:"last_name"`
	Email               string         `db:"email" json:"email"`
	ActivityCount       int            `db:"activity_count" json:"activity_count"`
	ActivityTypes       pq.StringArray `db:"activity_types" json:"activity_types"`
	EngagementDiversity int            `db:"engagement_diversity" json:"engagement_diversity"`
	LastActivity        time.Time      `db:"last_activity" json:"last_activity"`
}

// PredictiveInsightEntry is the per-user projection served by the predictive
// metric group.
type PredictiveInsightEntry struct {
	UserID             string  `json:"user_id"`
	SuccessProbability float64 `json:"success_probability"`
	AtRiskIndicator    bool    `json:"at_risk_indicator"`
}

// AtRiskLearnerEntry is the per-user projection served by the at-risk metric
// group.
type AtRiskLearnerEntry struct {
	UserID             string  `json:"user_id"`
	AtRiskIndicator    bool    `json:"at_risk_indicator"`
	AvgEngagementScore float64 `json:"avg_engagement_score"`
	AvgFocusScore      float64 `json:"avg_focus_score"`
	SuccessProbability float64 `json:"success_probability"`
}

// ContentEngagementEntry aggregates block completions per content block.
type ContentEngagementEntry struct {
	BlockID              string  `db:"block_id" json:"block_id"`
	TotalEngagements     int     `db:"total_engagements" json:"total_engagements"`
	AvgEngagement        float64 `db:"avg_engagement" json:"avg_engagement"`
	CompletionRate       float64 `db:"completion_rate" json:"completion_rate"`
	AvgTimePerEngagement float64 `db:"avg_time_per_engagement" json:"avg_time_per_engagement"`
}

// PathEffectivenessEntry summarises user progress per content type.
type PathEffectivenessEntry struct {
	ProgressType   string  `db:"progress_type" json:"progress_type"`
	Total          int     `db:"total" json:"total"`
	Completed      int     `db:"completed" json:"completed"`
	AvgCompletion  float64 `db:"avg_completion" json:"avg_completion"`
	CompletionRate float64 `db:"completion_rate" json:"completion_rate"`
}

// DashboardMetadata annotates every dashboard response.
type DashboardMetadata struct {
	ComputedAt     time.Time  `json:"computedAt"`
	AnalyticsType  string     `json:"analyticsType"`
	BenchmarkScope string     `json:"benchmarkScope"`
	DateRange      *DateRange `json:"dateRange"`
	UserID         string     `json:"userId,omitempty"`
	ClientID       string     `json:"clientId,omitempty"`
}
