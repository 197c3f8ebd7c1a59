package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aigym/analytics-api/internal/dto"
	"github.com/aigym/analytics-api/internal/models"
	"github.com/aigym/analytics-api/internal/repository"
	"github.com/aigym/analytics-api/pkg/clock"
	"github.com/aigym/analytics-api/pkg/config"
	appErrors "github.com/aigym/analytics-api/pkg/errors"
)

type mockAnalyticsReader struct {
	rows       []models.UserAnalyticsRecord
	predictive []models.UserAnalyticsRecord
	atRisk     []models.UserAnalyticsRecord
	listCalls  int
	lastFilter repository.AnalyticsFilter
}

func (m *mockAnalyticsReader) List(ctx context.Context, filter repository.AnalyticsFilter) ([]models.UserAnalyticsRecord, error) {
	m.listCalls++
	m.lastFilter = filter
	return m.rows, nil
}

func (m *mockAnalyticsReader) ListPredictive(ctx context.Context, clientID, userID string) ([]models.UserAnalyticsRecord, error) {
	return m.predictive, nil
}

func (m *mockAnalyticsReader) ListAtRisk(ctx context.Context, clientID string) ([]models.UserAnalyticsRecord, error) {
	return m.atRisk, nil
}

type mockBenchmarkReader struct {
	rows        []models.BenchmarkRecord
	lastScope   string
	lastScopeID string
}

func (m *mockBenchmarkReader) ListByScope(ctx context.Context, scope, scopeID string) ([]models.BenchmarkRecord, error) {
	m.lastScope = scope
	m.lastScopeID = scopeID
	return m.rows, nil
}

type mockDashboardReader struct {
	users      int
	content    int
	activities int
	recent     []models.UserActivity
	ranking    []dto.ActivityRankingEntry
	engagement []dto.ContentEngagementEntry
	paths      []dto.PathEffectivenessEntry
}

func (m *mockDashboardReader) CountUsers(ctx context.Context, clientID string) (int, error) {
	return m.users, nil
}

func (m *mockDashboardReader) CountPublishedContent(ctx context.Context) (int, error) {
	return m.content, nil
}

func (m *mockDashboardReader) CountActivities(ctx context.Context, start, end time.Time, clientID string) (int, error) {
	return m.activities, nil
}

func (m *mockDashboardReader) RecentActivity(ctx context.Context, start, end time.Time, clientID string, limit int) ([]models.UserActivity, error) {
	return m.recent, nil
}

func (m *mockDashboardReader) ActivityRanking(ctx context.Context, start, end time.Time, clientID string, limit int) ([]dto.ActivityRankingEntry, error) {
	return m.ranking, nil
}

func (m *mockDashboardReader) ContentEngagement(ctx context.Context, start, end time.Time, clientID string) ([]dto.ContentEngagementEntry, error) {
	return m.engagement, nil
}

func (m *mockDashboardReader) PathEffectiveness(ctx context.Context, start, end time.Time, clientID string) ([]dto.PathEffectivenessEntry, error) {
	return m.paths, nil
}

// jsonCacheStore round-trips payloads through JSON the way the redis-backed
// store does.
type jsonCacheStore struct {
	entries map[string][]byte
}

func (m *jsonCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *jsonCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *jsonCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = nil
	return nil
}

func analyticsRow(engagement, velocity float64, atRisk bool, computedAt time.Time) models.UserAnalyticsRecord {
	return models.UserAnalyticsRecord{
		UserID: "u1",
		AnalyticsMetrics: models.AnalyticsMetrics{
			AvgEngagementScore:  engagement,
			AvgLearningVelocity: velocity,
			AtRiskIndicator:     atRisk,
		},
		ComputationTimestamp: computedAt,
	}
}

func newDashboardService(analytics *mockAnalyticsReader, benchmarks *mockBenchmarkReader, dashboards *mockDashboardReader, cache *CacheService, now time.Time) *DashboardService {
	return NewDashboardService(analytics, benchmarks, dashboards, cache,
		clock.Fixed(now), config.DashboardConfig{RecentActivityLimit: 50, CacheTTL: time.Minute}, zap.NewNop())
}

func TestBuildDefaults(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	analytics := &mockAnalyticsReader{rows: []models.UserAnalyticsRecord{
		analyticsRow(70, 2, false, now.Add(-time.Hour)),
	}}
	dashboards := &mockDashboardReader{users: 40, content: 12, activities: 300}
	svc := newDashboardService(analytics, &mockBenchmarkReader{}, dashboards, nil, now)

	result, err := svc.Build(context.Background(), dto.DashboardRequest{})
	require.NoError(t, err)

	assert.Contains(t, result, "summaryStats")
	assert.Contains(t, result, "learningAnalytics")
	assert.NotContains(t, result, "performanceBenchmarks")

	stats, ok := result["summaryStats"].(dto.SummaryStats)
	require.True(t, ok)
	assert.Equal(t, 40, stats.TotalUsers)
	assert.Equal(t, 12, stats.TotalContent)
	assert.Equal(t, 300, stats.RecentActivities)

	meta, ok := result["metadata"].(dto.DashboardMetadata)
	require.True(t, ok)
	assert.Equal(t, "dashboard", meta.AnalyticsType)
	assert.Equal(t, models.BenchmarkScopeClient, meta.BenchmarkScope)
	assert.Equal(t, now.AddDate(0, 0, -30), meta.DateRange.Start)
	assert.Equal(t, now, meta.DateRange.End)

	// The default window flows through to the analytics read.
	assert.Equal(t, now.AddDate(0, 0, -30), analytics.lastFilter.Start)
}

func TestBuildLearningAnalyticsGroup(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	analytics := &mockAnalyticsReader{rows: []models.UserAnalyticsRecord{
		analyticsRow(70, 2, true, now.Add(-time.Hour)),
		analyticsRow(50, 1, false, now.Add(-time.Hour)),
	}}
	svc := newDashboardService(analytics, &mockBenchmarkReader{}, &mockDashboardReader{}, nil, now)

	result, err := svc.Build(context.Background(), dto.DashboardRequest{
		Metrics: []string{dto.MetricLearningAnalytics},
	})
	require.NoError(t, err)

	group, ok := result["learningAnalytics"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fresh", group["data_freshness"])
	assert.Equal(t, now.Add(-time.Hour), group["last_computed"])

	summary, ok := group["summary"].(dto.AnalyticsSummary)
	require.True(t, ok)
	assert.Equal(t, 2, summary.TotalUsers)
	assert.Equal(t, 60.0, summary.AvgEngagementScore)
	assert.Equal(t, 1.5, summary.AvgLearningVelocity)
	assert.Equal(t, 1, summary.AtRiskCount)
	assert.Equal(t, "fresh", summary.DataFreshness)
}

func TestBuildAnalyticsInsightsEmpty(t *testing.T) {
	insights := buildAnalyticsInsights(nil)

	assert.Equal(t, []string{"No data available for analysis"}, insights.KeyInsights)
	assert.Equal(t, []string{"Increase user engagement to generate meaningful analytics"}, insights.Recommendations)
	assert.Equal(t, "insufficient_data", insights.PerformanceTrends)
}

func TestBuildAnalyticsInsightsThresholds(t *testing.T) {
	now := time.Now()

	low := buildAnalyticsInsights([]models.UserAnalyticsRecord{
		analyticsRow(0.2, 0.1, true, now),
	})
	assert.Contains(t, low.KeyInsights, "Low engagement levels detected across users")
	assert.Contains(t, low.KeyInsights, "Learning velocity is below optimal levels")
	assert.Contains(t, low.KeyInsights, "100% of users are at risk of not completing their learning goals")
	assert.Contains(t, low.Recommendations, "Implement early intervention strategies for at-risk learners")
	assert.Equal(t, "needs_attention", low.PerformanceTrends)
	assert.Equal(t, "limited", low.DataQuality)

	high := buildAnalyticsInsights([]models.UserAnalyticsRecord{
		analyticsRow(0.9, 0.5, false, now),
	})
	assert.Contains(t, high.KeyInsights, "High engagement levels indicate effective learning content")
	assert.Equal(t, "improving", high.PerformanceTrends)

	rows := make([]models.UserAnalyticsRecord, 11)
	for i := range rows {
		rows[i] = analyticsRow(0.7, 0.5, false, now)
	}
	many := buildAnalyticsInsights(rows)
	assert.Equal(t, "good", many.DataQuality)
}

func TestDataFreshnessBuckets(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc := newDashboardService(&mockAnalyticsReader{}, &mockBenchmarkReader{}, &mockDashboardReader{}, nil, now)

	cases := []struct {
		age      time.Duration
		expected string
	}{
		{time.Hour, "fresh"},
		{3 * time.Hour, "recent"},
		{12 * time.Hour, "stale"},
		{48 * time.Hour, "outdated"},
	}
	for _, tc := range cases {
		rows := []models.UserAnalyticsRecord{analyticsRow(50, 1, false, now.Add(-tc.age))}
		assert.Equal(t, tc.expected, svc.dataFreshness(rows), tc.expected)
	}
	assert.Equal(t, "no_data", svc.dataFreshness(nil))
}

func TestBuildBenchmarksScopeResolution(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	benchmarks := &mockBenchmarkReader{}
	svc := newDashboardService(&mockAnalyticsReader{}, benchmarks, &mockDashboardReader{}, nil, now)

	_, err := svc.Build(context.Background(), dto.DashboardRequest{
		ClientID: "c1",
		Metrics:  []string{dto.MetricBenchmarks},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BenchmarkScopeClient, benchmarks.lastScope)
	assert.Equal(t, "c1", benchmarks.lastScopeID)

	_, err = svc.Build(context.Background(), dto.DashboardRequest{
		ClientID:       "c1",
		BenchmarkScope: models.BenchmarkScopeGlobal,
		Metrics:        []string{dto.MetricBenchmarks},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BenchmarkScopeGlobal, benchmarks.lastScope)
	assert.Empty(t, benchmarks.lastScopeID)
}

func TestDecorateVelocity(t *testing.T) {
	row := models.UserAnalyticsRecord{
		UserID: "u1",
		AnalyticsMetrics: models.AnalyticsMetrics{
			TotalLearningTimeMinutes: 120,
			BlocksCompleted:          4,
			BlocksMastered:           3,
			AvgEngagementScore:       0.5,
			AvgLearningVelocity:      2,
			LearningVelocityTrend:    models.TrendImproving,
		},
	}

	metric := decorateVelocity(row)

	assert.Equal(t, 2.0, metric.BlocksPerHour)
	assert.Equal(t, 1.0, metric.EngagementVelocity)
	assert.Equal(t, 0.75, metric.LearningEfficiency)
	assert.Equal(t, 1, metric.VelocityTrendScore)
	assert.Equal(t, "good", metric.EfficiencyRating)
}

func TestVelocityTrendScore(t *testing.T) {
	assert.Equal(t, 1, velocityTrendScore("Improving"))
	assert.Equal(t, 1, velocityTrendScore("increasing"))
	assert.Equal(t, -1, velocityTrendScore("declining"))
	assert.Equal(t, -1, velocityTrendScore("Decreasing"))
	assert.Equal(t, 0, velocityTrendScore("stable"))
	assert.Equal(t, 0, velocityTrendScore(""))
}

func TestEfficiencyRating(t *testing.T) {
	assert.Equal(t, "excellent", efficiencyRating(0.85))
	assert.Equal(t, "good", efficiencyRating(0.6))
	assert.Equal(t, "fair", efficiencyRating(0.45))
	assert.Equal(t, "needs_improvement", efficiencyRating(0.1))
}

func TestBuildVelocityTrends(t *testing.T) {
	empty := buildVelocityTrends(nil)
	assert.Equal(t, "insufficient_data", empty.OverallTrend)
	assert.Empty(t, empty.VelocityPatterns)

	metric := func(trendScore int, velocity float64) dto.VelocityMetric {
		return dto.VelocityMetric{
			UserAnalyticsRecord: models.UserAnalyticsRecord{
				AnalyticsMetrics: models.AnalyticsMetrics{AvgLearningVelocity: velocity},
			},
			VelocityTrendScore: trendScore,
		}
	}

	trends := buildVelocityTrends([]dto.VelocityMetric{
		metric(1, 0.9),
		metric(1, 0.8),
		metric(1, 0.2),
		metric(0, 0.3),
	})

	assert.Equal(t, "improving", trends.OverallTrend)
	assert.Equal(t, 75, trends.TrendDistribution["improving"])
	assert.Equal(t, 25, trends.TrendDistribution["stable"])
	assert.Equal(t, 2, trends.HighVelocityUsers)
	assert.Contains(t, trends.VelocityPatterns, "Majority of users showing velocity improvement")
	assert.Contains(t, trends.VelocityPatterns, "Strong cohort of high-velocity learners identified")

	declining := buildVelocityTrends([]dto.VelocityMetric{
		metric(-1, 0.1),
		metric(-1, 0.2),
		metric(0, 0.3),
	})
	assert.Equal(t, "declining", declining.OverallTrend)
	assert.Contains(t, declining.VelocityPatterns, "Significant portion of users experiencing velocity decline")
}

func TestBuildServesFromCache(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	analytics := &mockAnalyticsReader{rows: []models.UserAnalyticsRecord{
		analyticsRow(70, 2, false, now.Add(-time.Hour)),
	}}
	store := &jsonCacheStore{}
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	svc := newDashboardService(analytics, &mockBenchmarkReader{}, &mockDashboardReader{}, cache, now)

	req := dto.DashboardRequest{Metrics: []string{dto.MetricLearningAnalytics}}

	_, err := svc.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.listCalls)

	_, err = svc.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.listCalls)
}

func TestBuildPathEffectivenessDefaults(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	dashboards := &mockDashboardReader{paths: []dto.PathEffectivenessEntry{
		{ProgressType: "courses", Total: 5, Completed: 2},
		{ProgressType: "unknown", Total: 9},
	}}
	svc := newDashboardService(&mockAnalyticsReader{}, &mockBenchmarkReader{}, dashboards, nil, now)

	result, err := svc.Build(context.Background(), dto.DashboardRequest{
		Metrics: []string{dto.MetricPathEffectiveness},
	})
	require.NoError(t, err)

	paths, ok := result["learningPathEffectiveness"].(map[string]dto.PathEffectivenessEntry)
	require.True(t, ok)
	assert.Len(t, paths, 3)
	assert.Equal(t, 5, paths["courses"].Total)
	assert.Equal(t, 0, paths["wods"].Total)
	assert.Equal(t, 0, paths["programs"].Total)
}

func TestBuildPredictiveAndAtRisk(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	row := analyticsRow(40, 1, true, now)
	row.SuccessProbability = 35.5
	row.AvgFocusScore = 42

	analytics := &mockAnalyticsReader{
		predictive: []models.UserAnalyticsRecord{row},
		atRisk:     []models.UserAnalyticsRecord{row},
	}
	svc := newDashboardService(analytics, &mockBenchmarkReader{}, &mockDashboardReader{}, nil, now)

	result, err := svc.Build(context.Background(), dto.DashboardRequest{
		Metrics: []string{dto.MetricPredictiveInsights, dto.MetricAtRiskLearners},
	})
	require.NoError(t, err)

	predictive, ok := result["predictiveInsights"].([]dto.PredictiveInsightEntry)
	require.True(t, ok)
	require.Len(t, predictive, 1)
	assert.Equal(t, "u1", predictive[0].UserID)
	assert.Equal(t, 35.5, predictive[0].SuccessProbability)
	assert.True(t, predictive[0].AtRiskIndicator)

	atRisk, ok := result["atRiskLearners"].([]dto.AtRiskLearnerEntry)
	require.True(t, ok)
	require.Len(t, atRisk, 1)
	assert.Equal(t, 42.0, atRisk[0].AvgFocusScore)
}
