package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openresearch/research-agent/internal/api"
	"github.com/openresearch/research-agent/internal/config"
	"github.com/openresearch/research-agent/internal/middleware"
	"github.com/openresearch/research-agent/internal/monitoring"
	"github.com/openresearch/research-agent/internal/research"
	"github.com/openresearch/research-agent/internal/sources"
	"github.com/openresearch/research-agent/internal/store"
	"github.com/openresearch/research-agent/internal/users"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()
	logger := monitoring.NewLogger(cfg.LogLevel, cfg.LogFormat)

	// ── Metrics ──────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	// ── Registries ───────────────────────────────────────────
	sessionStore := store.NewSessionStore()
	sourceRegistry := store.NewSourceRegistry()
	userRegistry := store.NewUserRegistry()

	// ── Background runner ────────────────────────────────────
	runner := research.NewRunner(sessionStore, logger, metrics, cfg.ResearchWorkers, cfg.ResearchQueueSize)

	// ── Handlers ─────────────────────────────────────────────
	researchHandler := research.NewHandler(sessionStore, runner, metrics, logger)
	sourcesHandler := sources.NewHandler(sourceRegistry, metrics, logger)
	usersHandler := users.NewHandler(userRegistry, logger)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics(metrics))
	r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, map[string]any{
			"message": "Multi-Domain Research Agent API",
			"version": version,
			"status":  "healthy",
		})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, map[string]any{
			"status":      "healthy",
			"version":     version,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": cfg.Environment,
		})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/research", researchHandler.Routes)
	r.Route("/sources", sourcesHandler.Routes)
	r.Route("/users", usersHandler.Routes)

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("research agent listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	// Let queued research jobs finish writing back before exit.
	runner.Stop()
}
