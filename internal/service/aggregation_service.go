package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aigym/analytics-api/internal/dto"
	"github.com/aigym/analytics-api/internal/models"
	"github.com/aigym/analytics-api/pkg/batch"
	"github.com/aigym/analytics-api/pkg/clock"
	"github.com/aigym/analytics-api/pkg/config"
	appErrors "github.com/aigym/analytics-api/pkg/errors"
)

// UserDirectory resolves which users an aggregation run covers.
type UserDirectory interface {
	ActiveUserIDs(ctx context.Context, start, end time.Time) ([]string, error)
	ListUsers(ctx context.Context, ids []string, clientID, userID string) ([]models.UserRef, error)
}

// RawActivityStore supplies one user's raw activity for a period.
type RawActivityStore interface {
	BlockCompletions(ctx context.Context, userID string, start, end time.Time) ([]models.BlockCompletion, error)
	LearningSessions(ctx context.Context, userID string, start, end time.Time) ([]models.LearningSession, error)
	PerformanceHistory(ctx context.Context, userID string, start, end time.Time) ([]models.PerformanceEntry, error)
	UserActivities(ctx context.Context, userID string, start, end time.Time) ([]models.UserActivity, error)
}

// AnalyticsStore persists pre-aggregated analytics rows.
type AnalyticsStore interface {
	Exists(ctx context.Context, userID string, period models.AnalyticsPeriod, periodStart time.Time) (bool, error)
	Upsert(ctx context.Context, rec *models.UserAnalyticsRecord) (bool, error)
}

// AggregationService orchestrates analytics computation runs: resolving the
// user population, fanning out per-user metric computation in batches, and
// recording the run in the computation log.
type AggregationService struct {
	users      UserDirectory
	raw        RawActivityStore
	analytics  AnalyticsStore
	calculator *MetricsCalculator
	benchmarks *BenchmarkService
	logs       *ComputationLogService
	cache      *CacheService
	metrics    *MetricsService
	validate   *validator.Validate
	clock      clock.Clock
	cfg        config.AnalyticsConfig
	logger     *zap.Logger
}

// NewAggregationService constructs the service and registers the request
// validators.
func NewAggregationService(
	users UserDirectory,
	raw RawActivityStore,
	analytics AnalyticsStore,
	calculator *MetricsCalculator,
	benchmarks *BenchmarkService,
	logs *ComputationLogService,
	cache *CacheService,
	metrics *MetricsService,
	clk clock.Clock,
	cfg config.AnalyticsConfig,
	logger *zap.Logger,
) *AggregationService {
	if clk == nil {
		clk = clock.System()
	}
	if cfg.DefaultBatchSize <= 0 {
		cfg.DefaultBatchSize = 100
	}
	if cfg.InterBatchDelay <= 0 {
		cfg.InterBatchDelay = 100 * time.Millisecond
	}

	v := validator.New()
	_ = v.RegisterValidation("computation_type", func(fl validator.FieldLevel) bool {
		return models.ComputationType(fl.Field().String()).Valid()
	})

	return &AggregationService{
		users:      users,
		raw:        raw,
		analytics:  analytics,
		calculator: calculator,
		benchmarks: benchmarks,
		logs:       logs,
		cache:      cache,
		metrics:    metrics,
		validate:   v,
		clock:      clk,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one computation run end to end and reports its results. The
// run is logged to the computation trail; failures close the trail entry
// before surfacing.
func (s *AggregationService) Run(ctx context.Context, req dto.ComputationRequest) (*dto.ComputationResponse, error) {
	if req.ComputationType == "" {
		req.ComputationType = string(models.ComputationDaily)
	}
	if req.BatchSize <= 0 {
		req.BatchSize = s.cfg.DefaultBatchSize
	}
	if err := s.validate.Struct(&req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid computation request")
	}

	computationType := models.ComputationType(req.ComputationType)
	s.logger.Info("starting analytics computation",
		zap.String("computation_type", req.ComputationType),
		zap.String("client_id", req.ClientID),
		zap.Bool("force", req.ForceRecalculation))

	logID := s.logs.Start(ctx, computationType, req.ClientID, req.UserID)
	started := s.clock.Now()

	results, outcome, err := s.dispatch(ctx, computationType, req)
	duration := s.clock.Now().Sub(started)

	if err != nil {
		s.logs.Fail(ctx, logID, err, duration)
		if s.metrics != nil {
			s.metrics.ObserveComputationRun(req.ComputationType, "failed", duration)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrComputation.Code, appErrors.ErrComputation.Status, appErrors.ErrComputation.Message)
	}

	s.logs.Complete(ctx, logID, outcome, duration)
	if s.metrics != nil {
		s.metrics.ObserveComputationRun(req.ComputationType, "completed", duration)
	}
	if s.cache != nil {
		// Computed rows supersede whatever the dashboard cached.
		_ = s.cache.Invalidate(ctx, "dashboard:*")
	}

	s.logger.Info("analytics computation completed",
		zap.String("computation_type", req.ComputationType),
		zap.Duration("duration", duration),
		zap.Int("records_processed", outcome.RecordsProcessed),
		zap.Int("errors", outcome.Errors))

	return &dto.ComputationResponse{
		Success:          true,
		ComputationType:  req.ComputationType,
		Results:          results,
		Duration:         int(duration.Seconds()),
		ComputationLogID: logID,
	}, nil
}

func (s *AggregationService) dispatch(ctx context.Context, computationType models.ComputationType, req dto.ComputationRequest) (interface{}, RunOutcome, error) {
	if period, ok := computationType.Period(); ok {
		result, err := s.computePeriod(ctx, period, req)
		return result, RunOutcome{
			RecordsProcessed: result.UsersProcessed,
			RecordsUpdated:   result.RecordsUpdated,
			Errors:           result.Errors,
			Batches:          result.Batches,
		}, err
	}

	if computationType == models.ComputationBenchmarks {
		result, err := s.benchmarks.ComputeAll(ctx, req.ClientID)
		return result, RunOutcome{
			RecordsProcessed: result.BenchmarksCreated,
			RecordsUpdated:   result.BenchmarksUpdated,
			Errors:           result.Errors,
			Batches:          1,
		}, err
	}

	// Composite run: every period in order, then benchmarks.
	var all dto.AllResult
	var err error
	if all.Daily, err = s.computePeriod(ctx, models.PeriodDaily, req); err != nil {
		return nil, RunOutcome{}, err
	}
	if all.Weekly, err = s.computePeriod(ctx, models.PeriodWeekly, req); err != nil {
		return nil, RunOutcome{}, err
	}
	if all.Monthly, err = s.computePeriod(ctx, models.PeriodMonthly, req); err != nil {
		return nil, RunOutcome{}, err
	}
	if all.Benchmarks, err = s.benchmarks.ComputeAll(ctx, req.ClientID); err != nil {
		return nil, RunOutcome{}, err
	}

	outcome := RunOutcome{
		RecordsProcessed: all.Daily.UsersProcessed + all.Weekly.UsersProcessed + all.Monthly.UsersProcessed + all.Benchmarks.BenchmarksCreated,
		RecordsUpdated:   all.Daily.RecordsUpdated + all.Weekly.RecordsUpdated + all.Monthly.RecordsUpdated + all.Benchmarks.BenchmarksUpdated,
		Errors:           all.Daily.Errors + all.Weekly.Errors + all.Monthly.Errors + all.Benchmarks.Errors,
		Batches:          all.Daily.Batches + all.Weekly.Batches + all.Monthly.Batches,
	}
	return all, outcome, nil
}

// computePeriod runs the per-user aggregation for one period window. A
// failing user is counted and logged; the run carries on.
func (s *AggregationService) computePeriod(ctx context.Context, period models.AnalyticsPeriod, req dto.ComputationRequest) (dto.PeriodResult, error) {
	var result dto.PeriodResult

	start, end := period.Window(s.clock.Now())

	activeIDs, err := s.users.ActiveUserIDs(ctx, start, end)
	if err != nil {
		return result, err
	}
	if len(activeIDs) == 0 {
		s.logger.Info("no active users in period", zap.String("period", string(period)))
		return result, nil
	}

	users, err := s.users.ListUsers(ctx, activeIDs, req.ClientID, req.UserID)
	if err != nil {
		return result, err
	}
	s.logger.Info("processing users",
		zap.String("period", string(period)),
		zap.Int("users", len(users)))

	chunks := batch.Partition(users, req.BatchSize)
	for i, chunk := range chunks {
		result.Batches++

		outcomes := batch.Settle(ctx, chunk, func(ctx context.Context, ref models.UserRef) (upsertOutcome, error) {
			return s.computeUser(ctx, ref, period, start, end, req.ForceRecalculation)
		})
		for j, outcome := range outcomes {
			if outcome.Err != nil {
				result.Errors++
				s.logger.Error("failed to process user",
					zap.String("user_id", chunk[j].UserID),
					zap.String("period", string(period)),
					zap.Error(outcome.Err))
				continue
			}
			result.UsersProcessed++
			if outcome.Value.created {
				result.RecordsCreated++
			}
			if outcome.Value.updated {
				result.RecordsUpdated++
			}
		}

		// Breathe between batches so the run does not monopolise the database.
		if i < len(chunks)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.cfg.InterBatchDelay):
			}
		}
	}

	return result, nil
}

type upsertOutcome struct {
	created bool
	updated bool
	skipped bool
}

func (s *AggregationService) computeUser(ctx context.Context, ref models.UserRef, period models.AnalyticsPeriod, start, end time.Time, force bool) (upsertOutcome, error) {
	if !force {
		exists, err := s.analytics.Exists(ctx, ref.UserID, period, start)
		if err != nil {
			return upsertOutcome{}, err
		}
		if exists {
			return upsertOutcome{skipped: true}, nil
		}
	}

	blocks, err := s.raw.BlockCompletions(ctx, ref.UserID, start, end)
	if err != nil {
		return upsertOutcome{}, err
	}
	sessions, err := s.raw.LearningSessions(ctx, ref.UserID, start, end)
	if err != nil {
		return upsertOutcome{}, err
	}
	performance, err := s.raw.PerformanceHistory(ctx, ref.UserID, start, end)
	if err != nil {
		return upsertOutcome{}, err
	}
	activities, err := s.raw.UserActivities(ctx, ref.UserID, start, end)
	if err != nil {
		return upsertOutcome{}, err
	}

	metrics := s.calculator.Calculate(UserActivityData{
		Blocks:      blocks,
		Sessions:    sessions,
		Performance: performance,
		Activities:  activities,
	})

	now := s.clock.Now()
	record := &models.UserAnalyticsRecord{
		UserID:               ref.UserID,
		ClientID:             ref.ClientID,
		AnalyticsPeriod:      period,
		PeriodStartDate:      start,
		PeriodEndDate:        end,
		AnalyticsMetrics:     metrics,
		ComputationTimestamp: now,
		LastUpdated:          now,
	}

	created, err := s.analytics.Upsert(ctx, record)
	if err != nil {
		return upsertOutcome{}, err
	}
	return upsertOutcome{created: created, updated: !created}, nil
}
