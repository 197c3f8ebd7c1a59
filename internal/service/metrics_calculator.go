package service

import (
	"math"

	"github.com/aigym/analytics-api/internal/models"
)

// UserActivityData bundles one user's raw activity for a single period.
type UserActivityData struct {
	Blocks      []models.BlockCompletion
	Sessions    []models.LearningSession
	Performance []models.PerformanceEntry
	Activities  []models.UserActivity
}

// MetricsCalculator derives per-user analytics metrics from raw activity. It
// is stateless; databases and clocks live with its callers.
type MetricsCalculator struct{}

// NewMetricsCalculator constructs the calculator.
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// Calculate computes the full metrics payload for one user and period.
// Missing optional scores count as zero in averages; completely empty input
// yields a zeroed payload flagged at risk with a floored data quality score.
func (c *MetricsCalculator) Calculate(data UserActivityData) models.AnalyticsMetrics {
	blocks := data.Blocks
	sessions := data.Sessions

	var totalSeconds, activeSeconds int
	for _, s := range sessions {
		totalSeconds += s.TotalDurationSeconds
		activeSeconds += s.ActiveDurationSeconds
	}
	totalMinutes := float64(totalSeconds) / 60
	activeMinutes := float64(activeSeconds) / 60

	blocksCompleted := 0
	blocksMastered := 0
	for _, b := range blocks {
		switch b.CompletionStatus {
		case models.CompletionStatusCompleted:
			blocksCompleted++
		case models.CompletionStatusMastered:
			blocksCompleted++
			blocksMastered++
		}
	}

	avgVelocity := averageSessionScore(sessions, func(s models.LearningSession) *float64 { return s.LearningVelocity })
	avgFocus := averageSessionScore(sessions, func(s models.LearningSession) *float64 { return s.FocusScore })

	var engagementSum, completionSum float64
	for _, b := range blocks {
		engagementSum += deref(b.ContentEngagementScore)
		completionSum += b.CompletionPercentage
	}
	var avgEngagement, avgCompletion float64
	if len(blocks) > 0 {
		avgEngagement = engagementSum / float64(len(blocks))
		avgCompletion = completionSum / float64(len(blocks))
	}

	// Mastery averages only over blocks that actually carry a score.
	var masterySum float64
	masteryCount := 0
	for _, b := range blocks {
		if b.MasteryScore != nil && *b.MasteryScore != 0 {
			masterySum += *b.MasteryScore
			masteryCount++
		}
	}
	var avgMastery float64
	if masteryCount > 0 {
		avgMastery = masterySum / float64(masteryCount)
	}

	trend := velocityTrend(sessions)

	var consumptionRate float64
	if totalMinutes > 0 {
		consumptionRate = float64(blocksCompleted) / (totalMinutes / 60)
	}

	var attentionSum float64
	breakCount := 0
	for _, s := range sessions {
		attentionSum += s.AttentionSpanMinutes
		breakCount += s.BreakCount
	}
	var attentionSpan float64
	if len(sessions) > 0 {
		attentionSpan = attentionSum / float64(len(sessions))
	}
	var breakFrequency float64
	if totalMinutes > 0 {
		breakFrequency = float64(breakCount) / (totalMinutes / 60)
	}

	improvements := 0
	for _, p := range data.Performance {
		if p.IsImprovement {
			improvements++
		}
	}
	var improvementRate float64
	if len(data.Performance) > 0 {
		improvementRate = float64(improvements) / float64(len(data.Performance)) * 100
	}

	atRisk := avgEngagement < 50 ||
		avgFocus < 50 ||
		(len(blocks) > 0 && float64(blocksCompleted)/float64(len(blocks)) < 0.3) ||
		trend == models.TrendDeclining

	attemptedFloor := len(blocks)
	if attemptedFloor < 1 {
		attemptedFloor = 1
	}
	successProbability := avgEngagement*0.3 + avgFocus*0.3 + float64(blocksCompleted)/float64(attemptedFloor)*40
	successProbability = math.Min(100, math.Max(0, successProbability))

	return models.AnalyticsMetrics{
		TotalLearningTimeMinutes:    int(math.Round(totalMinutes)),
		ActiveLearningTimeMinutes:   int(math.Round(activeMinutes)),
		LearningSessionsCount:       len(sessions),
		BlocksAttempted:             len(blocks),
		BlocksCompleted:             blocksCompleted,
		BlocksMastered:              blocksMastered,
		AvgLearningVelocity:         round2(avgVelocity),
		LearningVelocityTrend:       trend,
		ContentConsumptionRate:      round2(consumptionRate),
		AvgEngagementScore:          round2(avgEngagement),
		AvgFocusScore:               round2(avgFocus),
		AttentionSpanMinutes:        int(math.Round(attentionSpan)),
		BreakFrequency:              round2(breakFrequency),
		AvgCompletionPercentage:     round2(avgCompletion),
		AvgMasteryScore:             round2(avgMastery),
		PerformanceConsistencyScore: round2(consistencyScore(blocks)),
		ImprovementRate:             round2(improvementRate),
		AtRiskIndicator:             atRisk,
		SuccessProbability:          round2(successProbability),
		DataQualityScore:            dataQualityScore(data),
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func averageSessionScore(sessions []models.LearningSession, pick func(models.LearningSession) *float64) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sessions {
		sum += deref(pick(s))
	}
	return sum / float64(len(sessions))
}

// velocityTrend splits the period's sessions in half, in their chronological
// fetch order, and compares average velocity across the halves. A shift of
// more than ten percent either way moves the trend off stable.
func velocityTrend(sessions []models.LearningSession) string {
	if len(sessions) < 2 {
		return models.TrendStable
	}
	mid := len(sessions) / 2
	first := sessions[:mid]
	second := sessions[mid:]

	var firstSum, secondSum float64
	for _, s := range first {
		firstSum += deref(s.LearningVelocity)
	}
	for _, s := range second {
		secondSum += deref(s.LearningVelocity)
	}
	firstAvg := firstSum / float64(len(first))
	secondAvg := secondSum / float64(len(second))

	switch {
	case secondAvg > firstAvg*1.1:
		return models.TrendImproving
	case secondAvg < firstAvg*0.9:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

// consistencyScore measures the spread of mastery scores relative to their
// mean. Fewer than two scored blocks gives full marks; a wide spread pulls
// the score toward zero.
func consistencyScore(blocks []models.BlockCompletion) float64 {
	if len(blocks) < 2 {
		return 100
	}

	var scores []float64
	for _, b := range blocks {
		if b.MasteryScore != nil {
			scores = append(scores, *b.MasteryScore)
		}
	}
	if len(scores) < 2 {
		return 100
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	m := sum / float64(len(scores))
	if m == 0 {
		return 100
	}

	return math.Max(0, 100-stdDev(scores)/m*100)
}

// dataQualityScore penalises empty collections and missing optional scores,
// floored at 50 so rows stay usable downstream.
func dataQualityScore(data UserActivityData) int {
	score := 100

	if len(data.Blocks) == 0 {
		score -= 20
	}
	if len(data.Sessions) == 0 {
		score -= 20
	}
	if len(data.Performance) == 0 {
		score -= 10
	}
	if len(data.Activities) == 0 {
		score -= 10
	}

	missing := 0
	for _, b := range data.Blocks {
		if deref(b.ContentEngagementScore) == 0 {
			missing++
		}
		if deref(b.MasteryScore) == 0 {
			missing++
		}
	}
	for _, s := range data.Sessions {
		if deref(s.FocusScore) == 0 {
			missing++
		}
		if deref(s.LearningVelocity) == 0 {
			missing++
		}
	}
	if missing > 0 {
		penalty := missing * 2
		if penalty > 30 {
			penalty = 30
		}
		score -= penalty
	}

	if score < 50 {
		return 50
	}
	return score
}
