package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/classhub-backend/internal/clockrand"
	"github.com/stemsi/classhub-backend/internal/config"
	"github.com/stemsi/classhub-backend/internal/database"
	"github.com/stemsi/classhub-backend/internal/grading"
	"github.com/stemsi/classhub-backend/internal/handler"
	"github.com/stemsi/classhub-backend/internal/llm"
	"github.com/stemsi/classhub-backend/internal/logger"
	"github.com/stemsi/classhub-backend/internal/quiz"
	"github.com/stemsi/classhub-backend/internal/router"
	"github.com/stemsi/classhub-backend/internal/scheduler"
	"github.com/stemsi/classhub-backend/internal/service"
	"github.com/stemsi/classhub-backend/internal/store"
	"github.com/stemsi/classhub-backend/internal/validator"
	"github.com/stemsi/classhub-backend/internal/worker"
	"github.com/stemsi/classhub-backend/internal/wsconn"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting classhub backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Core components (C1-C8) ───────────────────────────────────────
	st := store.NewPostgresStore(pool)
	authService := service.NewAuthService(cfg, st)

	registry := wsconn.NewRegistry(cfg.AllowedOrigins, cfg.HeartbeatInterval, cfg.HeartbeatTimeout, log)
	engine := quiz.New(st, registry, clockrand.SystemClock{}, clockrand.CSPRNG{}, cfg, log)

	llmClient := llm.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMVisionModel, cfg.LLMBaseURL, log)
	pipeline := grading.New(st, llmClient, cfg, log)

	// ─── Handlers ───────────────────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Roster:     handler.NewRosterHandler(st),
		Quiz:       handler.NewQuizHandler(st, engine),
		Session:    handler.NewSessionHandler(engine),
		WS:         handler.NewWSHandler(registry, engine, st, log),
		Assessment: handler.NewAssessmentHandler(st, pipeline, rdb),
	}

	// ─── Background workers ─────────────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	gradingWorker := worker.NewGradingWorker(rdb, pipeline, log)
	go gradingWorker.Start(workerCtx)

	sched := scheduler.New(st, cfg, log)
	go sched.Start(workerCtx)

	// ─── HTTP server ─────────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers and the scheduler to drain.

	log.Info().Msg("Shutdown complete")
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
