package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/database"
	"github.com/stemsi/dropwatch/internal/handler"
	"github.com/stemsi/dropwatch/internal/logger"
	"github.com/stemsi/dropwatch/internal/repository"
	"github.com/stemsi/dropwatch/internal/router"
	"github.com/stemsi/dropwatch/internal/service"
	"github.com/stemsi/dropwatch/internal/validator"
	"github.com/stemsi/dropwatch/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("score_edit_policy", string(cfg.ScoreEditPolicy)).
		Msg("Starting Dropwatch")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	interventionRepo := repository.NewInterventionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	eventService := service.NewEventService(rdb, log)
	queue := worker.NewQueueTrigger(rdb)

	authService := service.NewAuthService(cfg)
	adminService := service.NewAdminService(adminRepo, roleRepo)
	studentService := service.NewStudentService(studentRepo, cfg.ScoreEditPolicy, eventService)
	predictionService := service.NewPredictionService(studentRepo, eventService, cfg.PredictionBatchSize, log)
	importService := service.NewImportService(studentRepo, queue, eventService, cfg.ImportBatchSize, log)
	interventionService := service.NewInterventionService(interventionRepo)
	dashboardService := service.NewDashboardService(dashboardRepo, rdb, cfg.DashboardCacheTTL, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService, adminService),
		Student:      handler.NewStudentHandler(studentService),
		Prediction:   handler.NewPredictionHandler(predictionService, queue),
		Import:       handler.NewImportHandler(importService, cfg.MaxUploadBytes),
		Intervention: handler.NewInterventionHandler(interventionService),
		Dashboard:    handler.NewDashboardHandler(dashboardService, log),
		AdminUser:    handler.NewAdminUserHandler(adminService, authService),
		WS:           handler.NewWSHandler(eventService, log, cfg.AllowedOrigins),
		System:       handler.NewSystemHandler(rdb, studentRepo, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	predictionWorker := worker.NewPredictionWorker(rdb, predictionService, studentRepo, cfg.PredictionSweepPeriod, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		predictionWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the prediction worker; a run in flight finishes its current
	// batch write before the worker notices.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
