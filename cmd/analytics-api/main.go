package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/aigym/analytics-api/api/swagger"
	"github.com/aigym/analytics-api/internal/handler"
	"github.com/aigym/analytics-api/internal/middleware"
	"github.com/aigym/analytics-api/internal/repository"
	"github.com/aigym/analytics-api/internal/scheduler"
	"github.com/aigym/analytics-api/internal/service"
	"github.com/aigym/analytics-api/pkg/cache"
	"github.com/aigym/analytics-api/pkg/clock"
	"github.com/aigym/analytics-api/pkg/config"
	"github.com/aigym/analytics-api/pkg/database"
	"github.com/aigym/analytics-api/pkg/logger"
	corsmiddleware "github.com/aigym/analytics-api/pkg/middleware/cors"
	reqidmiddleware "github.com/aigym/analytics-api/pkg/middleware/requestid"
)

// @title AI Gym Analytics API
// @version 1.0.0
// @description Learning analytics aggregation and dashboard service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// Redis is optional; without it the dashboard runs uncached.
	var redisClient *redis.Client
	if cfg.Dashboard.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	clk := clock.System()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	rawRepo := repository.NewRawActivityRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	benchmarkRepo := repository.NewBenchmarkRepository(db)
	logRepo := repository.NewComputationLogRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)
	logSvc := service.NewComputationLogService(logRepo, clk, logr)
	benchmarkSvc := service.NewBenchmarkService(analyticsRepo, benchmarkRepo, clk, logr, cfg.Analytics.BenchmarkBatchSize)
	aggregationSvc := service.NewAggregationService(
		userRepo, rawRepo, analyticsRepo,
		service.NewMetricsCalculator(),
		benchmarkSvc, logSvc, cacheSvc, metricsSvc,
		clk, cfg.Analytics, logr,
	)
	dashboardSvc := service.NewDashboardService(analyticsRepo, benchmarkRepo, dashboardRepo, cacheSvc, clk, cfg.Dashboard, logr)

	computationHandler := handler.NewComputationHandler(aggregationSvc, logr)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, logr)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/analytics/compute", computationHandler.Compute)
		api.POST("/analytics/dashboard", dashboardHandler.Dashboard)
		api.GET("/system/stats", metricsHandler.Snapshot)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	sched := scheduler.New(aggregationSvc, cfg.Scheduler, logr)
	sched.Start()
	defer sched.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
