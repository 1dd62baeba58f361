package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/cache"
	"github.com/unisphere/exam-backend/internal/config"
	"github.com/unisphere/exam-backend/internal/database"
	"github.com/unisphere/exam-backend/internal/handler"
	"github.com/unisphere/exam-backend/internal/logger"
	"github.com/unisphere/exam-backend/internal/mailer"
	"github.com/unisphere/exam-backend/internal/monitor"
	"github.com/unisphere/exam-backend/internal/repository"
	"github.com/unisphere/exam-backend/internal/router"
	"github.com/unisphere/exam-backend/internal/service"
	"github.com/unisphere/exam-backend/internal/validator"
	"github.com/unisphere/exam-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("smtp", cfg.MailEnabled()).
		Msg("Starting exam backend")

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
	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)

	// ─── Redis-backed Components ───────────────────────────────────────
	paperCache := cache.NewExamPaperCache(rdb, cfg.PaperCacheTTL)
	blocklist := cache.NewTokenBlocklist(rdb)
	hub := monitor.NewHub(rdb)

	// ─── Welcome Email Worker ──────────────────────────────────────────
	mailWorker := worker.NewMailWorker(mailer.NewSender(cfg, log), cfg.MailQueueSize, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, blocklist)
	userService := service.NewUserService(userRepo, authService, mailWorker, log)
	adminService := service.NewAdminService(adminRepo, authService)
	examService := service.NewExamService(examRepo, questionRepo, paperCache, hub, log)
	sessionService := service.NewExamSessionService(examRepo, questionRepo, sessionRepo, hub, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	deps := map[string]database.Pinger{
		"postgres": pool,
		"redis":    database.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
	}
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, userService, adminService, log),
		Exam:      handler.NewExamHandler(examService, sessionService, log),
		AdminExam: handler.NewAdminExamHandler(examService, sessionService, log),
		AdminUser: handler.NewAdminUserHandler(userService, log),
		Monitor:   handler.NewMonitorHandler(hub, examService, sessionService, cfg.AllowedOrigins, log),
		System:    handler.NewSystemHandler(deps, mailWorker, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		mailWorker.Start(workerCtx)
	}()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Papers of open exams are loaded before traffic arrives.
	if err := examService.PrewarmOpenPapers(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the mail worker and wait for its queue to drain.
	workerCancel()
	<-workerDone

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
