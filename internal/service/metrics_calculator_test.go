package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aigym/analytics-api/internal/models"
)

func fp(v float64) *float64 {
	return &v
}

func TestCalculateEmptyInput(t *testing.T) {
	calc := NewMetricsCalculator()

	metrics := calc.Calculate(UserActivityData{})

	assert.Equal(t, 0, metrics.TotalLearningTimeMinutes)
	assert.Equal(t, 0, metrics.BlocksAttempted)
	assert.Equal(t, 0.0, metrics.AvgLearningVelocity)
	assert.Equal(t, models.TrendStable, metrics.LearningVelocityTrend)
	assert.Equal(t, 100.0, metrics.PerformanceConsistencyScore)
	assert.Equal(t, 0.0, metrics.SuccessProbability)
	assert.True(t, metrics.AtRiskIndicator)
	assert.Equal(t, 50, metrics.DataQualityScore)
}

func TestCalculateFullPeriod(t *testing.T) {
	calc := NewMetricsCalculator()

	data := UserActivityData{
		Blocks: []models.BlockCompletion{
			{CompletionStatus: models.CompletionStatusCompleted, CompletionPercentage: 100, ContentEngagementScore: fp(70), MasteryScore: fp(80)},
			{CompletionStatus: models.CompletionStatusMastered, CompletionPercentage: 100, ContentEngagementScore: fp(90), MasteryScore: fp(90)},
			{CompletionStatus: models.CompletionStatusInProgress, CompletionPercentage: 40},
		},
		Sessions: []models.LearningSession{
			{TotalDurationSeconds: 1800, ActiveDurationSeconds: 1500, LearningVelocity: fp(2), FocusScore: fp(80), AttentionSpanMinutes: 10, BreakCount: 2},
			{TotalDurationSeconds: 1700, ActiveDurationSeconds: 1500, LearningVelocity: fp(3), FocusScore: fp(90), AttentionSpanMinutes: 20, BreakCount: 1},
		},
		Performance: []models.PerformanceEntry{
			{Score: 60, IsImprovement: false},
			{Score: 75, IsImprovement: true},
		},
		Activities: []models.UserActivity{{ActivityType: "block_completed"}},
	}

	metrics := calc.Calculate(data)

	assert.Equal(t, 58, metrics.TotalLearningTimeMinutes)
	assert.Equal(t, 50, metrics.ActiveLearningTimeMinutes)
	assert.Equal(t, 2, metrics.LearningSessionsCount)
	assert.Equal(t, 3, metrics.BlocksAttempted)
	assert.Equal(t, 2, metrics.BlocksCompleted)
	assert.Equal(t, 1, metrics.BlocksMastered)
	assert.Equal(t, 2.5, metrics.AvgLearningVelocity)
	assert.Equal(t, models.TrendImproving, metrics.LearningVelocityTrend)
	assert.Equal(t, 53.33, metrics.AvgEngagementScore)
	assert.Equal(t, 85.0, metrics.AvgFocusScore)
	assert.Equal(t, 15, metrics.AttentionSpanMinutes)
	assert.Equal(t, 80.0, metrics.AvgCompletionPercentage)
	assert.Equal(t, 85.0, metrics.AvgMasteryScore)
	assert.Equal(t, 94.12, metrics.PerformanceConsistencyScore)
	assert.Equal(t, 50.0, metrics.ImprovementRate)
	assert.False(t, metrics.AtRiskIndicator)
	assert.Equal(t, 68.17, metrics.SuccessProbability)
	assert.Equal(t, 96, metrics.DataQualityScore)
}

func TestCalculateAtRiskLowCompletionRatio(t *testing.T) {
	calc := NewMetricsCalculator()

	// Engagement and focus are high; only one of ten blocks finished.
	blocks := make([]models.BlockCompletion, 10)
	for i := range blocks {
		blocks[i] = models.BlockCompletion{
			CompletionStatus:       models.CompletionStatusInProgress,
			ContentEngagementScore: fp(90),
			MasteryScore:           fp(85),
		}
	}
	blocks[0].CompletionStatus = models.CompletionStatusCompleted

	metrics := calc.Calculate(UserActivityData{
		Blocks: blocks,
		Sessions: []models.LearningSession{
			{TotalDurationSeconds: 600, LearningVelocity: fp(1), FocusScore: fp(90)},
		},
	})

	assert.Equal(t, 90.0, metrics.AvgEngagementScore)
	assert.Equal(t, 90.0, metrics.AvgFocusScore)
	assert.True(t, metrics.AtRiskIndicator)
}

func TestVelocityTrend(t *testing.T) {
	sessions := func(velocities ...float64) []models.LearningSession {
		out := make([]models.LearningSession, len(velocities))
		for i, v := range velocities {
			out[i] = models.LearningSession{LearningVelocity: fp(v)}
		}
		return out
	}

	assert.Equal(t, models.TrendStable, velocityTrend(nil))
	assert.Equal(t, models.TrendStable, velocityTrend(sessions(5)))
	assert.Equal(t, models.TrendImproving, velocityTrend(sessions(10, 10, 50)))
	assert.Equal(t, models.TrendDeclining, velocityTrend(sessions(50, 10, 10)))
	assert.Equal(t, models.TrendStable, velocityTrend(sessions(10, 10.5)))
}

func TestConsistencyScore(t *testing.T) {
	assert.Equal(t, 100.0, consistencyScore(nil))
	assert.Equal(t, 100.0, consistencyScore([]models.BlockCompletion{{MasteryScore: fp(40)}}))

	// Two blocks but only one scored still counts as insufficient spread data.
	assert.Equal(t, 100.0, consistencyScore([]models.BlockCompletion{
		{MasteryScore: fp(40)}, {},
	}))

	// Zero-mean guard.
	assert.Equal(t, 100.0, consistencyScore([]models.BlockCompletion{
		{MasteryScore: fp(0)}, {MasteryScore: fp(0)},
	}))

	score := consistencyScore([]models.BlockCompletion{
		{MasteryScore: fp(80)}, {MasteryScore: fp(90)},
	})
	assert.InDelta(t, 94.12, score, 0.01)
}

func TestDataQualityScoreFloor(t *testing.T) {
	// Many blocks with no optional scores hit both the missing-field cap and
	// the floor.
	blocks := make([]models.BlockCompletion, 20)
	score := dataQualityScore(UserActivityData{Blocks: blocks})
	assert.Equal(t, 50, score)
}
