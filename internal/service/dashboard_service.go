package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aigym/analytics-api/internal/dto"
	"github.com/aigym/analytics-api/internal/models"
	"github.com/aigym/analytics-api/internal/repository"
	"github.com/aigym/analytics-api/pkg/clock"
	"github.com/aigym/analytics-api/pkg/config"
	appErrors "github.com/aigym/analytics-api/pkg/errors"
)

// AnalyticsReader supplies pre-aggregated analytics rows for dashboard reads.
type AnalyticsReader interface {
	List(ctx context.Context, filter repository.AnalyticsFilter) ([]models.UserAnalyticsRecord, error)
	ListPredictive(ctx context.Context, clientID, userID string) ([]models.UserAnalyticsRecord, error)
	ListAtRisk(ctx context.Context, clientID string) ([]models.UserAnalyticsRecord, error)
}

// BenchmarkReader supplies stored benchmark rows.
type BenchmarkReader interface {
	ListByScope(ctx context.Context, scope, scopeID string) ([]models.BenchmarkRecord, error)
}

// DashboardReader supplies the raw-table aggregations behind the remaining
// metric groups.
type DashboardReader interface {
	CountUsers(ctx context.Context, clientID string) (int, error)
	CountPublishedContent(ctx context.Context) (int, error)
	CountActivities(ctx context.Context, start, end time.Time, clientID string) (int, error)
	RecentActivity(ctx context.Context, start, end time.Time, clientID string, limit int) ([]models.UserActivity, error)
	ActivityRanking(ctx context.Context, start, end time.Time, clientID string, limit int) ([]dto.ActivityRankingEntry, error)
	ContentEngagement(ctx context.Context, start, end time.Time, clientID string) ([]dto.ContentEngagementEntry, error)
	PathEffectiveness(ctx context.Context, start, end time.Time, clientID string) ([]dto.PathEffectivenessEntry, error)
}

const activityRankingLimit = 20

// DashboardService assembles dashboard payloads from pre-computed analytics
// and live raw-table aggregations, with response-level caching.
type DashboardService struct {
	analytics  AnalyticsReader
	benchmarks BenchmarkReader
	dashboards DashboardReader
	cache      *CacheService
	validate   *validator.Validate
	clock      clock.Clock
	cfg        config.DashboardConfig
	logger     *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(
	analytics AnalyticsReader,
	benchmarks BenchmarkReader,
	dashboards DashboardReader,
	cache *CacheService,
	clk clock.Clock,
	cfg config.DashboardConfig,
	logger *zap.Logger,
) *DashboardService {
	if clk == nil {
		clk = clock.System()
	}
	if cfg.RecentActivityLimit <= 0 {
		cfg.RecentActivityLimit = 50
	}
	return &DashboardService{
		analytics:  analytics,
		benchmarks: benchmarks,
		dashboards: dashboards,
		cache:      cache,
		validate:   validator.New(),
		clock:      clk,
		cfg:        cfg,
		logger:     logger,
	}
}

// Build assembles the requested metric groups into one response payload.
// Unknown metric names are ignored; response keys are camelCase regardless of
// the snake_case group names used to request them.
func (s *DashboardService) Build(ctx context.Context, req dto.DashboardRequest) (map[string]interface{}, error) {
	now := s.clock.Now()

	if req.DateRange == nil {
		req.DateRange = &dto.DateRange{Start: now.AddDate(0, 0, -30), End: now}
	}
	if len(req.Metrics) == 0 {
		req.Metrics = []string{dto.MetricSummaryStats, dto.MetricLearningAnalytics}
	}
	if req.AnalyticsType == "" {
		req.AnalyticsType = "dashboard"
	}
	if req.BenchmarkScope == "" {
		req.BenchmarkScope = models.BenchmarkScopeClient
	}
	if err := s.validate.Struct(&req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dashboard request")
	}

	cacheKey := s.cacheKey(req)
	if s.cache.Enabled() {
		var cached map[string]interface{}
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return cached, nil
		}
	}

	result := map[string]interface{}{}
	requested := map[string]bool{}
	for _, m := range req.Metrics {
		requested[m] = true
	}

	var err error
	if requested[dto.MetricLearningAnalytics] {
		if result["learningAnalytics"], err = s.buildLearningAnalytics(ctx, req); err != nil {
			return nil, dashboardError(err)
		}
	}
	if requested[dto.MetricBenchmarks] {
		if result["performanceBenchmarks"], err = s.buildBenchmarks(ctx, req); err != nil {
			return nil, dashboardError(err)
		}
	}
	if requested[dto.MetricVelocityEngagement] {
		if result["velocityEngagement"], err = s.buildVelocityEngagement(ctx, req); err != nil {
			return nil, dashboardError(err)
		}
	}
	if requested[dto.MetricPredictiveInsights] {
		if result["predictiveInsights"], err = s.buildPredictiveInsights(ctx, req); err != nil {
			return nil, dashboardError(err)
		}
	}
	if requested[dto.MetricAtRiskLearners] {
		if result["atRiskLearners"], err = s.buildAtRiskLearners(ctx, req); err != nil {
			return nil, dashboardError(err)
		}
	}
	if requested[dto.MetricUserActivity] {
		if result["userActivity"], err = s.dashboards.ActivityRanking(ctx, req.DateRange.Start, req.DateRange.End, req.ClientID, activityRankingLimit); err != nil {
			return nil, dashboardError(err)
		}
	}
	if requested[dto.MetricRecentActivity] {
		if result["recentActivity"], err = s.dashboards.RecentActivity(ctx, req.DateRange.Start, req.DateRange.End, req.ClientID, s.cfg.RecentActivityLimit); err != nil {
			return nil, dashboardError(err)
		}
	}
	if requested[dto.MetricSummaryStats] {
		if result["summaryStats"], err = s.buildSummaryStats(ctx, req); err != nil {
			return nil, dashboardError(err)
		}
	}
	if requested[dto.MetricContentEngagement] {
		if result["contentEngagement"], err = s.dashboards.ContentEngagement(ctx, req.DateRange.Start, req.DateRange.End, req.ClientID); err != nil {
			return nil, dashboardError(err)
		}
	}
	if requested[dto.MetricPathEffectiveness] {
		if result["learningPathEffectiveness"], err = s.buildPathEffectiveness(ctx, req); err != nil {
			return nil, dashboardError(err)
		}
	}

	result["metadata"] = dto.DashboardMetadata{
		ComputedAt:     now,
		AnalyticsType:  req.AnalyticsType,
		BenchmarkScope: req.BenchmarkScope,
		DateRange:      req.DateRange,
		UserID:         req.UserID,
		ClientID:       req.ClientID,
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, result, s.cfg.CacheTTL)
	}
	return result, nil
}

func dashboardError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrDashboard.Code, appErrors.ErrDashboard.Status, appErrors.ErrDashboard.Message)
}

func (s *DashboardService) cacheKey(req dto.DashboardRequest) string {
	return fmt.Sprintf("dashboard:%s:%s:%s:%s:%d:%d:%s",
		req.ClientID, req.UserID, req.AnalyticsType, req.BenchmarkScope,
		req.DateRange.Start.Unix(), req.DateRange.End.Unix(),
		strings.Join(req.Metrics, ","))
}

func (s *DashboardService) analyticsFilter(req dto.DashboardRequest) repository.AnalyticsFilter {
	return repository.AnalyticsFilter{
		Start:    req.DateRange.Start,
		End:      req.DateRange.End,
		ClientID: req.ClientID,
		UserID:   req.UserID,
	}
}

func (s *DashboardService) buildLearningAnalytics(ctx context.Context, req dto.DashboardRequest) (map[string]interface{}, error) {
	rows, err := s.analytics.List(ctx, s.analyticsFilter(req))
	if err != nil {
		return nil, err
	}

	var lastComputed interface{}
	if len(rows) > 0 {
		lastComputed = rows[0].ComputationTimestamp
	}

	return map[string]interface{}{
		"raw_data":       rows,
		"summary":        s.buildAnalyticsSummary(rows),
		"insights":       buildAnalyticsInsights(rows),
		"last_computed":  lastComputed,
		"data_freshness": s.dataFreshness(rows),
	}, nil
}

func (s *DashboardService) buildAnalyticsSummary(rows []models.UserAnalyticsRecord) dto.AnalyticsSummary {
	if len(rows) == 0 {
		return dto.AnalyticsSummary{}
	}

	total := len(rows)
	var velocitySum, engagementSum float64
	totalTime := 0
	completed := 0
	atRisk := 0
	for _, row := range rows {
		velocitySum += row.AvgLearningVelocity
		engagementSum += row.AvgEngagementScore
		totalTime += row.TotalLearningTimeMinutes
		if row.AvgCompletionPercentage >= 100 {
			completed++
		}
		if row.AtRiskIndicator {
			atRisk++
		}
	}

	return dto.AnalyticsSummary{
		TotalUsers:          total,
		AvgLearningVelocity: round2(velocitySum / float64(total)),
		AvgEngagementScore:  round2(engagementSum / float64(total)),
		TotalLearningTime:   totalTime,
		CompletionRate:      round2(float64(completed) / float64(total)),
		AtRiskCount:         atRisk,
		DataFreshness:       "fresh",
	}
}

func buildAnalyticsInsights(rows []models.UserAnalyticsRecord) dto.AnalyticsInsights {
	if len(rows) == 0 {
		return dto.AnalyticsInsights{
			KeyInsights:       []string{"No data available for analysis"},
			Recommendations:   []string{"Increase user engagement to generate meaningful analytics"},
			PerformanceTrends: "insufficient_data",
		}
	}

	insights := []string{}
	recommendations := []string{}

	var engagementSum, velocitySum float64
	atRisk := 0
	for _, row := range rows {
		engagementSum += row.AvgEngagementScore
		velocitySum += row.AvgLearningVelocity
		if row.AtRiskIndicator {
			atRisk++
		}
	}
	avgEngagement := engagementSum / float64(len(rows))
	avgVelocity := velocitySum / float64(len(rows))

	if avgEngagement < 0.5 {
		insights = append(insights, "Low engagement levels detected across users")
		recommendations = append(recommendations, "Consider implementing more interactive content and gamification")
	} else if avgEngagement > 0.8 {
		insights = append(insights, "High engagement levels indicate effective learning content")
		recommendations = append(recommendations, "Maintain current engagement strategies and consider scaling")
	}

	if avgVelocity < 0.3 {
		insights = append(insights, "Learning velocity is below optimal levels")
		recommendations = append(recommendations, "Consider breaking content into smaller, more digestible chunks")
	}

	atRiskPercentage := float64(atRisk) / float64(len(rows)) * 100
	if atRiskPercentage > 20 {
		insights = append(insights, fmt.Sprintf("%d%% of users are at risk of not completing their learning goals", int(math.Round(atRiskPercentage))))
		recommendations = append(recommendations, "Implement early intervention strategies for at-risk learners")
	}

	trends := "needs_attention"
	if avgEngagement > 0.6 && avgVelocity > 0.4 {
		trends = "improving"
	}
	quality := "limited"
	if len(rows) > 10 {
		quality = "good"
	}

	return dto.AnalyticsInsights{
		KeyInsights:       insights,
		Recommendations:   recommendations,
		PerformanceTrends: trends,
		DataQuality:       quality,
	}
}

func (s *DashboardService) dataFreshness(rows []models.UserAnalyticsRecord) string {
	if len(rows) == 0 {
		return "no_data"
	}
	hours := s.clock.Now().Sub(rows[0].ComputationTimestamp).Hours()
	switch {
	case hours < 2:
		return "fresh"
	case hours < 6:
		return "recent"
	case hours < 24:
		return "stale"
	default:
		return "outdated"
	}
}

func (s *DashboardService) buildBenchmarks(ctx context.Context, req dto.DashboardRequest) ([]models.BenchmarkRecord, error) {
	scopeID := ""
	if req.BenchmarkScope == models.BenchmarkScopeClient && req.ClientID != "" {
		scopeID = req.ClientID
	}
	return s.benchmarks.ListByScope(ctx, req.BenchmarkScope, scopeID)
}

func (s *DashboardService) buildVelocityEngagement(ctx context.Context, req dto.DashboardRequest) (map[string]interface{}, error) {
	rows, err := s.analytics.List(ctx, s.analyticsFilter(req))
	if err != nil {
		return nil, err
	}

	metrics := make([]dto.VelocityMetric, 0, len(rows))
	for _, row := range rows {
		metrics = append(metrics, decorateVelocity(row))
	}

	return map[string]interface{}{
		"metrics": metrics,
		"summary": buildVelocitySummary(metrics),
		"trends":  buildVelocityTrends(metrics),
	}, nil
}

func decorateVelocity(row models.UserAnalyticsRecord) dto.VelocityMetric {
	var blocksPerHour float64
	if row.TotalLearningTimeMinutes > 0 {
		blocksPerHour = float64(row.BlocksCompleted) / (float64(row.TotalLearningTimeMinutes) / 60)
	}
	var efficiency float64
	if row.BlocksCompleted > 0 {
		efficiency = float64(row.BlocksMastered) / float64(row.BlocksCompleted)
	}
	return dto.VelocityMetric{
		UserAnalyticsRecord: row,
		BlocksPerHour:       blocksPerHour,
		EngagementVelocity:  row.AvgEngagementScore * row.AvgLearningVelocity,
		LearningEfficiency:  efficiency,
		VelocityTrendScore:  velocityTrendScore(row.LearningVelocityTrend),
		EfficiencyRating:    efficiencyRating(efficiency),
	}
}

func velocityTrendScore(trend string) int {
	switch strings.ToLower(trend) {
	case "improving", "increasing":
		return 1
	case "declining", "decreasing":
		return -1
	default:
		return 0
	}
}

func efficiencyRating(efficiency float64) string {
	switch {
	case efficiency >= 0.8:
		return "excellent"
	case efficiency >= 0.6:
		return "good"
	case efficiency >= 0.4:
		return "fair"
	default:
		return "needs_improvement"
	}
}

func buildVelocitySummary(metrics []dto.VelocityMetric) dto.VelocitySummary {
	if len(metrics) == 0 {
		return dto.VelocitySummary{}
	}

	total := len(metrics)
	var velocitySum, engagementVelocitySum float64
	topPerformers := 0
	improving := 0
	for _, m := range metrics {
		velocitySum += m.AvgLearningVelocity
		engagementVelocitySum += m.EngagementVelocity
		if m.AvgLearningVelocity > 0.8 {
			topPerformers++
		}
		if m.VelocityTrendScore > 0 {
			improving++
		}
	}

	return dto.VelocitySummary{
		TotalUsers:            total,
		AvgVelocity:           round2(velocitySum / float64(total)),
		AvgEngagementVelocity: round2(engagementVelocitySum / float64(total)),
		TopPerformerCount:     topPerformers,
		ImprovingUsersCount:   improving,
		ImprovementRate:       round2(float64(improving) / float64(total)),
	}
}

func buildVelocityTrends(metrics []dto.VelocityMetric) dto.VelocityTrends {
	if len(metrics) == 0 {
		return dto.VelocityTrends{
			OverallTrend:      "insufficient_data",
			TrendDistribution: map[string]int{"improving": 0, "stable": 0, "declining": 0},
			VelocityPatterns:  []string{},
		}
	}

	improving, stable, declining := 0, 0, 0
	highVelocity := 0
	for _, m := range metrics {
		switch {
		case m.VelocityTrendScore > 0:
			improving++
		case m.VelocityTrendScore < 0:
			declining++
		default:
			stable++
		}
		if m.AvgLearningVelocity > 0.7 {
			highVelocity++
		}
	}

	total := float64(len(metrics))
	improvingPercent := float64(improving) / total * 100
	decliningPercent := float64(declining) / total * 100

	overall := "stable"
	if improvingPercent > 60 {
		overall = "improving"
	} else if decliningPercent > 40 {
		overall = "declining"
	}

	patterns := []string{}
	if improvingPercent > 50 {
		patterns = append(patterns, "Majority of users showing velocity improvement")
	}
	if decliningPercent > 30 {
		patterns = append(patterns, "Significant portion of users experiencing velocity decline")
	}
	if float64(highVelocity)/total*100 > 25 {
		patterns = append(patterns, "Strong cohort of high-velocity learners identified")
	}

	return dto.VelocityTrends{
		OverallTrend: overall,
		TrendDistribution: map[string]int{
			"improving": int(math.Round(improvingPercent)),
			"stable":    int(math.Round(float64(stable) / total * 100)),
			"declining": int(math.Round(decliningPercent)),
		},
		VelocityPatterns:  patterns,
		HighVelocityUsers: highVelocity,
	}
}

func (s *DashboardService) buildPredictiveInsights(ctx context.Context, req dto.DashboardRequest) ([]dto.PredictiveInsightEntry, error) {
	rows, err := s.analytics.ListPredictive(ctx, req.ClientID, req.UserID)
	if err != nil {
		return nil, err
	}
	entries := make([]dto.PredictiveInsightEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, dto.PredictiveInsightEntry{
			UserID:             row.UserID,
			SuccessProbability: row.SuccessProbability,
			AtRiskIndicator:    row.AtRiskIndicator,
		})
	}
	return entries, nil
}

func (s *DashboardService) buildAtRiskLearners(ctx context.Context, req dto.DashboardRequest) ([]dto.AtRiskLearnerEntry, error) {
	rows, err := s.analytics.ListAtRisk(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	entries := make([]dto.AtRiskLearnerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, dto.AtRiskLearnerEntry{
			UserID:             row.UserID,
			AtRiskIndicator:    row.AtRiskIndicator,
			AvgEngagementScore: row.AvgEngagementScore,
			AvgFocusScore:      row.AvgFocusScore,
			SuccessProbability: row.SuccessProbability,
		})
	}
	return entries, nil
}

func (s *DashboardService) buildSummaryStats(ctx context.Context, req dto.DashboardRequest) (dto.SummaryStats, error) {
	users, err := s.dashboards.CountUsers(ctx, req.ClientID)
	if err != nil {
		return dto.SummaryStats{}, err
	}
	content, err := s.dashboards.CountPublishedContent(ctx)
	if err != nil {
		return dto.SummaryStats{}, err
	}
	activities, err := s.dashboards.CountActivities(ctx, req.DateRange.Start, req.DateRange.End, req.ClientID)
	if err != nil {
		return dto.SummaryStats{}, err
	}
	return dto.SummaryStats{
		TotalUsers:       users,
		TotalContent:     content,
		RecentActivities: activities,
	}, nil
}

// buildPathEffectiveness keys the per-type progress summaries under their
// fixed content type names; types with no rows stay zeroed.
func (s *DashboardService) buildPathEffectiveness(ctx context.Context, req dto.DashboardRequest) (map[string]dto.PathEffectivenessEntry, error) {
	rows, err := s.dashboards.PathEffectiveness(ctx, req.DateRange.Start, req.DateRange.End, req.ClientID)
	if err != nil {
		return nil, err
	}

	result := map[string]dto.PathEffectivenessEntry{
		"courses":  {ProgressType: "courses"},
		"wods":     {ProgressType: "wods"},
		"programs": {ProgressType: "programs"},
	}
	for _, row := range rows {
		if _, ok := result[row.ProgressType]; ok {
			result[row.ProgressType] = row
		}
	}
	return result, nil
}
