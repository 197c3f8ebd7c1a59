package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/aigym/analytics-api/internal/dto"
	"github.com/aigym/analytics-api/internal/models"
	"github.com/aigym/analytics-api/internal/service"
	"github.com/aigym/analytics-api/pkg/config"
)

// Scheduler drives the recurring aggregation runs: daily every night, weekly
// on Mondays, monthly on the first of the month, benchmarks right after the
// daily run. All schedules fire in UTC.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	aggregation *service.AggregationService
	cfg         config.SchedulerConfig
	logger      *zap.Logger
}

// New creates a scheduler instance.
func New(aggregation *service.AggregationService, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler:   gocron.NewScheduler(time.UTC),
		aggregation: aggregation,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start registers the recurring jobs and begins running them in the
// background. It is a no-op when the scheduler is disabled.
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return
	}

	s.scheduler.Every(1).Day().At(s.cfg.DailyAt).Do(func() {
		s.run(models.ComputationDaily)
		s.run(models.ComputationBenchmarks)
	})
	s.scheduler.Every(1).Week().Monday().At(s.cfg.WeeklyAt).Do(func() {
		s.run(models.ComputationWeekly)
	})
	s.scheduler.Every(1).Month(1).At(s.cfg.MonthlyAt).Do(func() {
		s.run(models.ComputationMonthly)
	})

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started",
		zap.String("daily_at", s.cfg.DailyAt),
		zap.String("weekly_at", s.cfg.WeeklyAt),
		zap.String("monthly_at", s.cfg.MonthlyAt))
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) run(computationType models.ComputationType) {
	req := dto.ComputationRequest{ComputationType: string(computationType)}
	result, err := s.aggregation.Run(context.Background(), req)
	if err != nil {
		s.logger.Error("scheduled computation failed",
			zap.String("computation_type", string(computationType)),
			zap.Error(err))
		return
	}
	s.logger.Info("scheduled computation finished",
		zap.String("computation_type", string(computationType)),
		zap.Int("duration_seconds", result.Duration))
}
