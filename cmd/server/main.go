package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/certiva/certiva-backend/internal/config"
	"github.com/certiva/certiva-backend/internal/database"
	"github.com/certiva/certiva-backend/internal/handler"
	"github.com/certiva/certiva-backend/internal/logger"
	"github.com/certiva/certiva-backend/internal/repository"
	"github.com/certiva/certiva-backend/internal/router"
	"github.com/certiva/certiva-backend/internal/service"
	"github.com/certiva/certiva-backend/internal/validator"
	"github.com/certiva/certiva-backend/internal/worker"
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
		Msg("Starting Certiva Backend")

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
	examRepo := repository.NewExamRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	certRepo := repository.NewCertificateRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	catalogService := service.NewCatalogService(examRepo, rdb, log)
	sessionService := service.NewSessionService(sessionRepo, resultRepo, catalogService, log)
	resultService := service.NewResultService(resultRepo)
	evaluationService := service.NewEvaluationService(resultRepo, catalogService, rdb, cfg.ClaimTTL, log)
	certificateService := service.NewCertificateService(certRepo, resultRepo, cfg, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:          handler.NewExamHandler(catalogService),
		StudentPortal: handler.NewStudentPortalHandler(catalogService, sessionService, resultService, certificateService),
		Evaluation:    handler.NewEvaluationHandler(evaluationService),
		Certificate:   handler.NewCertificateHandler(certificateService),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	deadlineWorker := worker.NewDeadlineWorker(sessionService, cfg.SweepInterval, log)
	certificateWorker := worker.NewCertificateWorker(certificateService, rdb, log)

	go deadlineWorker.Start(workerCtx)
	go certificateWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published exam definitions into Redis BEFORE accepting
	// traffic, so session starts never stampede PostgreSQL.
	if err := catalogService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
