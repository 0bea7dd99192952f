package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"terrain-streamer/internal/catalog"
	"terrain-streamer/internal/platform/config"
	"terrain-streamer/internal/platform/logger"
	"terrain-streamer/internal/platform/metrics"
	"terrain-streamer/internal/session"
	"terrain-streamer/internal/terrain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	shutdownTimeout = 10 * time.Second
	fetchTimeout    = 30 * time.Second
)

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	doc, err := loadCatalog(cfg)
	if err != nil {
		log.Error("catalog load failed", "source", cfg.CatalogSource, "error", err)
		os.Exit(1)
	}
	set, err := doc.TemplateSet()
	if err != nil {
		log.Error("catalog invalid", "error", err)
		os.Exit(1)
	}

	streamCfg := applyOverrides(doc.Config(), cfg)
	if err := streamCfg.Validate(); err != nil {
		log.Error("stream config invalid", "error", err)
		os.Exit(1)
	}

	met := metrics.New()
	repo := session.NewInMemoryRepository()
	svc := session.NewService(repo, session.Defaults{
		Config:      streamCfg,
		Templates:   set,
		MaxSessions: cfg.MaxSessions,
		Strict:      cfg.Strict,
	}, log, met)
	h := session.NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(repo.ActiveSessionCount()) }).ServeHTTP(w, r)
	})
	h.Routes(r)

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"templates", len(set.Templates),
		"forced", len(set.Forced),
		"segment_width", streamCfg.SegmentWidth,
		"start_margin", streamCfg.StartMargin,
		"end_margin", streamCfg.EndMargin,
		"max_sessions", cfg.MaxSessions,
		"strict", cfg.Strict,
		"log_level", cfg.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// loadCatalog fetches CATALOG_SOURCE when set and falls back to the built-in
// catalog otherwise.
func loadCatalog(cfg config.Server) (*catalog.Document, error) {
	if cfg.CatalogSource == "" {
		return catalog.Default(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	return catalog.FetchAndLoad(ctx, cfg.CatalogSource, cfg.CatalogDir)
}

// applyOverrides lets SEGMENT_WIDTH, START_MARGIN and END_MARGIN replace the
// catalog values. Margins override whenever set, including to 0.
func applyOverrides(c terrain.Config, cfg config.Server) terrain.Config {
	if cfg.SegmentWidth > 0 {
		c.SegmentWidth = cfg.SegmentWidth
	}
	if cfg.StartMargin != nil {
		c.StartMargin = *cfg.StartMargin
	}
	if cfg.EndMargin != nil {
		c.EndMargin = *cfg.EndMargin
	}
	return c
}
