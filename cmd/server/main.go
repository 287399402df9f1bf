package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/config"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/database"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/handler"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/logger"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/middleware"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/repository"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/router"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/service"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/validator"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/worker"
)

// Operator requests allowed per minute, per operator.
const operatorRateLimit = 240

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Str("school", cfg.SchoolCode).
		Msg("Starting Classbridge attendance service")

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
	classRepo := repository.NewClassRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	roster := repository.NewCachedRoster(studentRepo, rdb, cfg.RosterCacheTTL, log)
	auditRepo := repository.NewAuditRepository(pool)

	var store service.AttendanceStore
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn().Msg("Attendance records are kept in memory and are lost on restart")
		store = repository.NewMemoryAttendanceStore()
	case config.StoreDriverPostgres:
		store = repository.NewAttendanceRepository(pool)
	default:
		log.Fatal().Str("store", cfg.StoreDriver).Msg("Unknown STORE_DRIVER")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	attendanceService := service.NewAttendanceService(
		store, roster, classRepo, studentRepo,
		service.NewRedisAuditQueue(rdb),
		service.AttendanceOptions{MaxRangeDays: cfg.MaxRangeDays, AtRiskThreshold: cfg.AtRiskThreshold},
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		Class:      handler.NewClassHandler(attendanceService, log),
		Attendance: handler.NewAttendanceHandler(attendanceService, log),
		WS:         handler.NewWSHandler(attendanceService, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(pool, rdb, log),
	}
	limiter := middleware.NewRateLimiter(rdb, operatorRateLimit, time.Minute, log)

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	auditWorker := worker.NewAuditWorker(auditRepo, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		auditWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, limiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop the audit worker and wait for its buffer to flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
