package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/yuga-labs/yuga-planner-api/api/swagger"
	"github.com/yuga-labs/yuga-planner-api/internal/handler"
	"github.com/yuga-labs/yuga-planner-api/internal/middleware"
	"github.com/yuga-labs/yuga-planner-api/internal/repository"
	"github.com/yuga-labs/yuga-planner-api/internal/service"
	"github.com/yuga-labs/yuga-planner-api/pkg/cache"
	"github.com/yuga-labs/yuga-planner-api/pkg/config"
	"github.com/yuga-labs/yuga-planner-api/pkg/database"
	"github.com/yuga-labs/yuga-planner-api/pkg/logger"
	corsmiddleware "github.com/yuga-labs/yuga-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/yuga-labs/yuga-planner-api/pkg/middleware/requestid"
	"github.com/yuga-labs/yuga-planner-api/pkg/storage"
)

// @title Yuga Planner API
// @version 0.1.0
// @description Asynchronous employee task scheduling with constraint-based optimization
// @BasePath /
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

	var runs service.SolverRunStore
	if cfg.Database.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("database connection failed", "error", err)
		}
		defer db.Close() //nolint:errcheck
		if err := database.EnsureSchema(context.Background(), db); err != nil {
			logr.Sugar().Fatalw("database schema init failed", "error", err)
		}
		runs = repository.NewSolverRunRepository(db)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("redis connection failed", "error", err)
		}
		defer client.Close() //nolint:errcheck
		redisClient = client
	}

	var files *storage.ExportArchive
	if cfg.Export.Dir != "" {
		files, err = storage.NewExportArchive(cfg.Export.Dir)
		if err != nil {
			logr.Sugar().Fatalw("export storage init failed", "error", err)
		}
	}

	metrics := service.NewMetricsService()
	store := service.NewSolutionStore(cfg.Solver.JobTTL)
	scheduleSvc := service.NewScheduleService(cfg, logr, store, runs, redisClient, metrics, files)
	scheduleSvc.Start(context.Background())
	defer scheduleSvc.Stop()

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.POST("/schedule-jobs", scheduleHandler.Submit)
		api.DELETE("/schedule-jobs", scheduleHandler.TerminateAll)
		api.GET("/schedule-jobs/:id", scheduleHandler.Poll)
		api.DELETE("/schedule-jobs/:id", scheduleHandler.Terminate)
		api.GET("/schedule-jobs/:id/export", scheduleHandler.Export)
		api.GET("/schedule-jobs/:id/export-link", scheduleHandler.ExportLink)
		api.GET("/solver-runs", scheduleHandler.ListRuns)
		api.GET("/solver-runs/:id", scheduleHandler.GetRun)
	}

	// Signed tokens authorize downloads on their own, outside the JWT group.
	r.GET("/exports/:token", scheduleHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "workers", cfg.Solver.Workers)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
