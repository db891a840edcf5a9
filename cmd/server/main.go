// skillpath - conversational skills-assessment server
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

	"github.com/ashureev/skillpath/internal/api"
	"github.com/ashureev/skillpath/internal/app"
	"github.com/ashureev/skillpath/internal/config"
	"github.com/ashureev/skillpath/internal/identity"
	"github.com/ashureev/skillpath/internal/live"
	"github.com/ashureev/skillpath/internal/middleware"
	"github.com/ashureev/skillpath/internal/observability"
	"github.com/ashureev/skillpath/internal/sweeper"
	"github.com/ashureev/skillpath/internal/transcript"
	"github.com/ashureev/skillpath/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Version is set at build time via ldflags.
var Version = "dev"

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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.Init(ctx, observability.ConfigFromEnv("skillpath", cfg.AppEnv, Version))
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}()

	// Initialize dependencies.
	deps, err := app.New(cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil {
			slog.Error("Failed to close application", "error", closeErr)
		}
	}()

	if err := deps.Store.Ping(ctx); err != nil {
		slog.Error("Session store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Session store connected", "backend", cfg.StoreBackend)
	deps.Run(ctx)

	transcripts, err := transcript.New(transcript.Config{
		Enabled:    cfg.ConversationLog.Enabled,
		Dir:        cfg.ConversationLog.Dir,
		GlobalPath: globalTranscriptPath(cfg),
		QueueSize:  cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcripts.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	// Initialize handlers.
	hub := live.NewHub()
	baseHandler := api.NewHandler(deps.Engine, deps.Store, transcripts)
	assessmentHandler := api.NewAssessmentHandler(baseHandler)
	wsHandler := api.NewChatSocketHandler(baseHandler, hub, cfg.AllowedOrigins)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	if cfg.RateLimitRequests > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		go limiter.Run(ctx)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(limiter, identity.RateLimitKey))
			assessmentHandler.RegisterRoutes(r)
		})
		slog.Info("Rate limiting enabled", "requests", cfg.RateLimitRequests, "window", cfg.RateLimitWindow)
	} else {
		assessmentHandler.RegisterRoutes(r)
	}

	// WebSocket endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Websocket conversations are long-lived, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(r, "skillpath.http"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start session sweeper. Expired sessions also drop their live socket.
	sweeper.New(deps.Store, cfg.SessionTTL, cfg.SweepInterval, func(id string) {
		hub.CloseSession(id, "session expired")
	}).Start(ctx)

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

func globalTranscriptPath(cfg *config.Config) string {
	if !cfg.ConversationLog.GlobalEnabled {
		return ""
	}
	return cfg.ConversationLog.GlobalPath
}
