package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aigym/analytics-api/internal/models"
	"github.com/aigym/analytics-api/pkg/clock"
)

func benchmarkRow(minutes, attempted, completed int, mastery, engagement, velocity float64) models.UserAnalyticsRecord {
	return models.UserAnalyticsRecord{
		AnalyticsMetrics: models.AnalyticsMetrics{
			TotalLearningTimeMinutes: minutes,
			BlocksAttempted:          attempted,
			BlocksCompleted:          completed,
			AvgMasteryScore:          mastery,
			AvgEngagementScore:       engagement,
			AvgLearningVelocity:      velocity,
		},
	}
}

func TestComputeAllGlobalOnly(t *testing.T) {
	source := &mockBenchmarkSource{rows: map[string][]models.UserAnalyticsRecord{
		"": {
			benchmarkRow(120, 10, 8, 80, 70, 2),
			benchmarkRow(60, 5, 1, 60, 50, 1),
		},
	}}
	store := &mockBenchmarkStore{}
	svc := NewBenchmarkService(source, store, clock.Fixed(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)), zap.NewNop(), 0)

	result, err := svc.ComputeAll(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 1, result.BenchmarksCreated)
	assert.Equal(t, 0, result.BenchmarksUpdated)
	assert.Equal(t, 0, result.Errors)

	require.Len(t, store.upserts, 1)
	rec := store.upserts[0]
	assert.Equal(t, models.BenchmarkTypeIndustry, rec.BenchmarkType)
	assert.Equal(t, models.BenchmarkScopeGlobal, rec.BenchmarkScope)
	assert.Nil(t, rec.ScopeID)
	assert.Equal(t, "course", rec.ContentType)
	assert.Equal(t, "intermediate", rec.DifficultyLevel)
	assert.Equal(t, 2, rec.SampleSize)
	assert.Equal(t, 30, rec.ComputationPeriodDays)

	assert.Equal(t, 1.5, rec.AvgCompletionTimeHours)
	assert.Equal(t, 70.0, rec.AvgMasteryScore)
	assert.Equal(t, 60.0, rec.AvgEngagementScore)
	// ceil(10/8)=2 and ceil(5/1)=5 attempts per completion.
	assert.Equal(t, 4, rec.MedianAttempts)
	assert.Equal(t, 50.0, rec.SuccessRatePercentage)
	assert.Equal(t, 80.0, rec.PerformancePercentiles["P90"])
}

func TestComputeAllIncludesClientScope(t *testing.T) {
	source := &mockBenchmarkSource{rows: map[string][]models.UserAnalyticsRecord{
		"":   {benchmarkRow(120, 10, 8, 80, 70, 2)},
		"c1": {benchmarkRow(60, 4, 2, 65, 55, 1.5)},
	}}
	store := &mockBenchmarkStore{}
	svc := NewBenchmarkService(source, store, nil, zap.NewNop(), 0)

	result, err := svc.ComputeAll(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.BenchmarksCreated)
	require.Len(t, store.upserts, 2)

	client := store.upserts[1]
	assert.Equal(t, models.BenchmarkTypeOrganizational, client.BenchmarkType)
	assert.Equal(t, models.BenchmarkScopeClient, client.BenchmarkScope)
	require.NotNil(t, client.ScopeID)
	assert.Equal(t, "c1", *client.ScopeID)
}

func TestComputeAllEmptySampleIsQuiet(t *testing.T) {
	store := &mockBenchmarkStore{}
	svc := NewBenchmarkService(&mockBenchmarkSource{}, store, nil, zap.NewNop(), 0)

	result, err := svc.ComputeAll(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 0, result.BenchmarksCreated)
	assert.Equal(t, 0, result.Errors)
	assert.Empty(t, store.upserts)
}

func TestComputeAllRecomputeUpdates(t *testing.T) {
	source := &mockBenchmarkSource{rows: map[string][]models.UserAnalyticsRecord{
		"": {benchmarkRow(120, 10, 8, 80, 70, 2)},
	}}
	store := &mockBenchmarkStore{}
	svc := NewBenchmarkService(source, store, nil, zap.NewNop(), 0)

	first, err := svc.ComputeAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.BenchmarksCreated)

	second, err := svc.ComputeAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, second.BenchmarksCreated)
	assert.Equal(t, 1, second.BenchmarksUpdated)
}

func TestBuildRecordSkipsZeroValues(t *testing.T) {
	svc := NewBenchmarkService(&mockBenchmarkSource{}, &mockBenchmarkStore{}, nil, zap.NewNop(), 0)

	rows := []models.UserAnalyticsRecord{
		benchmarkRow(0, 0, 0, 0, 0, 0),
		benchmarkRow(60, 4, 2, 80, 0, 1),
	}
	rec := svc.buildRecord(benchmarkScope{benchmarkType: models.BenchmarkTypeIndustry, scope: models.BenchmarkScopeGlobal}, rows)

	assert.Equal(t, 2, rec.SampleSize)
	assert.Equal(t, 1.0, rec.AvgCompletionTimeHours)
	assert.Equal(t, 80.0, rec.AvgMasteryScore)
	assert.Equal(t, 0.0, rec.AvgEngagementScore)
	assert.Equal(t, 2, rec.MedianAttempts)
	assert.Empty(t, rec.EngagementPercentiles)
}
