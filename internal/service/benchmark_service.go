package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/aigym/analytics-api/internal/dto"
	"github.com/aigym/analytics-api/internal/models"
	"github.com/aigym/analytics-api/pkg/clock"
)

// BenchmarkAnalyticsSource supplies the analytics rows a benchmark is
// computed over.
type BenchmarkAnalyticsSource interface {
	ListForBenchmark(ctx context.Context, clientID string, limit int) ([]models.UserAnalyticsRecord, error)
}

// BenchmarkStore persists computed benchmarks.
type BenchmarkStore interface {
	Upsert(ctx context.Context, rec *models.BenchmarkRecord) (bool, error)
}

// BenchmarkService recomputes population-level statistics from the
// pre-aggregated analytics rows.
type BenchmarkService struct {
	analytics BenchmarkAnalyticsSource
	store     BenchmarkStore
	clock     clock.Clock
	logger    *zap.Logger
	batchSize int
}

// NewBenchmarkService constructs the service. batchSize caps the sample read
// per scope.
func NewBenchmarkService(analytics BenchmarkAnalyticsSource, store BenchmarkStore, clk clock.Clock, logger *zap.Logger, batchSize int) *BenchmarkService {
	if clk == nil {
		clk = clock.System()
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &BenchmarkService{analytics: analytics, store: store, clock: clk, logger: logger, batchSize: batchSize}
}

type benchmarkScope struct {
	benchmarkType string
	scope         string
	scopeID       *string
	clientFilter  string
}

// ComputeAll recomputes the industry-wide benchmark and, when a client is
// given, that client's organizational benchmark. A failing scope is counted
// and logged; the remaining scopes still run.
func (s *BenchmarkService) ComputeAll(ctx context.Context, clientID string) (dto.BenchmarkResult, error) {
	scopes := []benchmarkScope{
		{benchmarkType: models.BenchmarkTypeIndustry, scope: models.BenchmarkScopeGlobal},
	}
	if clientID != "" {
		id := clientID
		scopes = append(scopes, benchmarkScope{
			benchmarkType: models.BenchmarkTypeOrganizational,
			scope:         models.BenchmarkScopeClient,
			scopeID:       &id,
			clientFilter:  clientID,
		})
	}

	var result dto.BenchmarkResult
	for _, scope := range scopes {
		created, computed, err := s.computeScope(ctx, scope)
		if err != nil {
			result.Errors++
			if s.logger != nil {
				s.logger.Error("benchmark computation failed",
					zap.String("benchmark_type", scope.benchmarkType),
					zap.Error(err))
			}
			continue
		}
		if !computed {
			continue
		}
		if created {
			result.BenchmarksCreated++
		} else {
			result.BenchmarksUpdated++
		}
	}
	return result, nil
}

// computeScope recomputes one benchmark row. The second return is false when
// the scope had no analytics rows to sample; that is a quiet no-op rather
// than an error.
func (s *BenchmarkService) computeScope(ctx context.Context, scope benchmarkScope) (bool, bool, error) {
	rows, err := s.analytics.ListForBenchmark(ctx, scope.clientFilter, s.batchSize)
	if err != nil {
		return false, false, err
	}
	if len(rows) == 0 {
		if s.logger != nil {
			s.logger.Info("no analytics data for benchmark",
				zap.String("benchmark_type", scope.benchmarkType))
		}
		return false, false, nil
	}

	rec := s.buildRecord(scope, rows)
	created, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return false, false, err
	}
	return created, true, nil
}

func (s *BenchmarkService) buildRecord(scope benchmarkScope, rows []models.UserAnalyticsRecord) *models.BenchmarkRecord {
	var completionHours, masteryScores, engagementScores, velocities, successRates []float64
	var attempts []int

	for _, row := range rows {
		if row.TotalLearningTimeMinutes > 0 {
			completionHours = append(completionHours, float64(row.TotalLearningTimeMinutes)/60)
		}
		if row.AvgMasteryScore > 0 {
			masteryScores = append(masteryScores, row.AvgMasteryScore)
		}
		if row.AvgEngagementScore > 0 {
			engagementScores = append(engagementScores, row.AvgEngagementScore)
		}
		if row.AvgLearningVelocity > 0 {
			velocities = append(velocities, row.AvgLearningVelocity)
		}
		if row.BlocksAttempted > 0 {
			completedFloor := row.BlocksCompleted
			if completedFloor < 1 {
				completedFloor = 1
			}
			attempt := int(math.Ceil(float64(row.BlocksAttempted) / float64(completedFloor)))
			if attempt < 1 {
				attempt = 1
			}
			attempts = append(attempts, attempt)
			successRates = append(successRates, float64(row.BlocksCompleted)/float64(row.BlocksAttempted)*100)
		}
	}

	return &models.BenchmarkRecord{
		BenchmarkType:          scope.benchmarkType,
		BenchmarkScope:         scope.scope,
		ScopeID:                scope.scopeID,
		ContentType:            "course",
		DifficultyLevel:        "intermediate",
		AvgCompletionTimeHours: mean(completionHours),
		AvgMasteryScore:        mean(masteryScores),
		AvgEngagementScore:     mean(engagementScores),
		MedianAttempts:         medianInt(attempts),
		SuccessRatePercentage:  mean(successRates),
		PerformancePercentiles: percentiles(masteryScores),
		VelocityPercentiles:    percentiles(velocities),
		EngagementPercentiles:  percentiles(engagementScores),
		SampleSize:             len(rows),
		ComputationPeriodDays:  30,
		LastComputed:           s.clock.Now(),
	}
}
