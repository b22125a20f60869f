// Package main is the entrypoint for the VisionPulse API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/visionpulse/internal/ai/provider"
	"github.com/kiranshivaraju/visionpulse/internal/api"
	"github.com/kiranshivaraju/visionpulse/internal/api/handler"
	mw "github.com/kiranshivaraju/visionpulse/internal/api/middleware"
	"github.com/kiranshivaraju/visionpulse/internal/api/response"
	"github.com/kiranshivaraju/visionpulse/internal/cache"
	"github.com/kiranshivaraju/visionpulse/internal/config"
	"github.com/kiranshivaraju/visionpulse/internal/generation"
	"github.com/kiranshivaraju/visionpulse/internal/media"
	"github.com/kiranshivaraju/visionpulse/internal/pipeline"
	"github.com/kiranshivaraju/visionpulse/internal/store"
	"github.com/kiranshivaraju/visionpulse/pkg/presets"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	slog.SetDefault(newLogger("info"))

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Server.LogLevel))
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env,
		"auth_enabled", len(cfg.Auth.APIKeyHashes) > 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Artifact storage and AI backends
	artifacts, err := media.NewLocalStore(cfg.Artifacts.OutputDir, cfg.Artifacts.BaseURL)
	if err != nil {
		return fmt.Errorf("create artifact store: %w", err)
	}
	caps, err := provider.New(cfg.AI, media.NewHTTPDownloader(cfg.Artifacts.DownloadTimeout))
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "provider", caps.Provider)

	// 6. Pipeline and generation service
	catalog := presets.Default()
	pgStore := store.NewPostgresStore(pool)
	svc := generation.NewService(pgStore, redisCache, artifacts, catalog, pipeline.Generators{
		Planner:   pipeline.NewPlanner(caps.Text, catalog),
		Narration: pipeline.NewNarrationExtractor(caps.Text),
		Images:    pipeline.NewImageGenerator(caps.Image, artifacts, cfg.AI.ImageSize),
		Audio:     pipeline.NewAudioGenerator(caps.Speech, artifacts, catalog),
		Video:     pipeline.NewVideoGenerator(caps.Video, artifacts, cfg.Pipeline.PollInterval, cfg.Pipeline.PollTimeout),
	}, generation.Options{MaxConcurrent: cfg.Pipeline.MaxConcurrent})

	// 7. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(cfg.Auth.APIKeyHashes),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Auth.RateLimitPerMinute),

		HealthHandler: healthHandler(pgStore, redisCache),
		CreateVideo:   handler.NewCreateVideoHandler(svc),
		ListVideos:    handler.NewListVideosHandler(svc),
		GetVideo:      handler.NewGetVideoHandler(svc),
		DeleteVideo:   handler.NewDeleteVideoHandler(svc),
		RemixVideo:    handler.NewRemixVideoHandler(svc),
		ListStyles:    handler.NewStylesHandler(svc),
		ListVoices:    handler.NewVoicesHandler(svc),
	}
	// Absolute base URLs point at an external host; only relative ones are served here.
	if strings.HasPrefix(cfg.Artifacts.BaseURL, "/") {
		deps.ArtifactPath = cfg.Artifacts.BaseURL
		deps.ArtifactDir = artifacts.Root()
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("pipeline shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
