// Glint - reactive script-rerun web-app server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glintlabs/glint/internal/api"
	"github.com/glintlabs/glint/internal/cache"
	"github.com/glintlabs/glint/internal/config"
	"github.com/glintlabs/glint/internal/engine"
	"github.com/glintlabs/glint/internal/host"
	"github.com/glintlabs/glint/internal/identity"
	"github.com/glintlabs/glint/internal/middleware"
	"github.com/glintlabs/glint/internal/showcase"
	"github.com/glintlabs/glint/internal/store"
	"github.com/glintlabs/glint/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Sweep sessions that expired while the process was down.
	if reaped, err := repo.CleanupExpiredSessions(context.Background(), cfg.SessionTTL); err != nil {
		slog.Warn("Startup session cleanup failed", "error", err)
	} else if reaped > 0 {
		slog.Info("Cleaned up expired sessions", "count", reaped)
	}

	// Memoization cache backend.
	var cacheStore cache.Store
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		cacheStore, err = cache.NewRedisStore(context.Background(), cfg.Cache.RedisAddr, cfg.Cache.TTL)
		if err != nil {
			slog.Error("Failed to connect to Redis cache", "error", err, "addr", cfg.Cache.RedisAddr)
			os.Exit(1)
		}
		slog.Info("Memoize cache ready", "backend", "redis", "addr", cfg.Cache.RedisAddr)
	default:
		cacheStore = cache.NewMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		slog.Info("Memoize cache ready", "backend", "memory", "max_entries", cfg.Cache.MaxEntries)
	}
	defer func() {
		if closeErr := cacheStore.Close(); closeErr != nil {
			slog.Error("Failed to close cache store", "error", closeErr)
		}
	}()

	// Initialize the rerun engine with the showcase application.
	flusher := engine.NewFlusher(repo, 256)
	defer flusher.Close()

	eng := engine.New(showcase.Render, repo, cache.NewMemoizer(cacheStore), flusher)

	// Initialize handlers.
	conns := host.NewConnManager()
	wsHandler := host.NewWSHandler(eng, conns, cfg.FrontendURL, cfg.IsDevelopment())
	sessionHandler := api.NewSessionHandler(repo, eng, cfg)
	healthHandler := api.NewHealthHandler(repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)
	sessionHandler.RegisterRoutes(r)

	// WebSocket endpoint for the rendering host.
	r.Get("/ws", wsHandler.ServeHTTP)

	// Serve the embedded browser client.
	r.Handle("/*", web.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,                 // 0 = no timeout; WebSocket sessions are long-lived
		IdleTimeout:  120 * time.Second, // 2 minutes for idle connections
	}

	// Start TTL worker.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.StartTTLWorker(ctx, repo, eng, cfg.SessionTTL, conns.Close)
	slog.Info("TTL worker started", "session_ttl", cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
