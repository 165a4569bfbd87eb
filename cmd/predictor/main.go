// Command predictor serves encoding predictions from benchmark data.
//
// The predictor runs a continuous refresh loop that:
//  1. Fetches the configured benchmark pages
//  2. Extracts quality/speed curves from each page's inline data
//  3. Merges the batches into a single snapshot (freshest page wins)
//  4. Stores the snapshot for the HTTP API to serve
//
// The predictor serves an HTTP API on port 8080 (configurable) providing:
//   - GET /predict - Predict VMAF/SSIM/fps/bitrate for encoder settings
//   - POST /radar - Percentile-calibrate radar scores for a preset set
//   - GET /snapshot/current?source=<name> - Retrieve the snapshot document
//   - GET /healthz - Health check endpoint
//   - GET /metrics - Prometheus metrics endpoint
//
// Usage:
//
//	predictor \
//	  -data-urls=https://bench.example.com/archive.html,https://bench.example.com/latest.html \
//	  -homepage-url=https://bench.example.com \
//	  -interval=6h
//
// Environment variables:
//
//	DATA_URLS     - Comma-separated benchmark page URLs, freshest last (required)
//	HOMEPAGE_URL  - Benchmark site homepage for snapshot provenance
//	SOURCE_NAME   - Snapshot name in storage (default: default)
//	STORAGE       - Storage backend: memory or redis (default: memory)
//	REDIS_ADDR    - Redis server address
//	INTERVAL      - Refresh interval (default: 6h)
//	LOG_LEVEL     - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT    - Logging format: text, json (default: text)
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ffui/benchcast/cmd/predictor/config"
	"github.com/ffui/benchcast/cmd/predictor/metrics"
	"github.com/ffui/benchcast/cmd/predictor/router"
	"github.com/ffui/benchcast/pkg/httpx"
	"github.com/ffui/benchcast/pkg/predict"
	"github.com/ffui/benchcast/pkg/sources"
	"github.com/ffui/benchcast/pkg/storage"
	"github.com/ffui/benchcast/pkg/tls"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting benchcast predictor",
		"version", version,
		"source", cfg.SourceName,
		"pages", len(cfg.SourceURLs()),
	)

	store, err := newStore(cfg)
	if err != nil {
		logger.Error("failed to create store", "error", err)
		os.Exit(1)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("failed to close store", "error", err)
			}
		}()
	}

	pages, err := newPages(cfg)
	if err != nil {
		logger.Error("failed to create page sources", "error", err)
		os.Exit(1)
	}

	m := metrics.New(cfg.SourceName)
	rf := NewRefresher(cfg.SourceName, pages, cfg.HomepageURL, cfg.SourceTitle, store, logger, m)

	engine := predict.NewEngine(nil)
	staleAfter := 2 * cfg.Interval // Snapshot is stale if older than 2x the interval
	mux := router.SetupRoutes(store, engine, cfg.SourceName, staleAfter, m, logger)

	handler := httpx.RecoveryMiddleware(logger)(httpx.LoggingMiddleware(logger)(mux))
	httpServer := httpx.NewServer(cfg.Listen, handler, logger)

	if cfg.TLS.Enabled {
		tlsConfig, err := cfg.TLS.Server()
		if err != nil {
			logger.Error("failed to build TLS config", "error", err)
			os.Exit(1)
		}
		httpServer.SetTLSConfig(tlsConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := rf.Run(ctx, cfg.Interval); err != nil && err != context.Canceled {
			logger.Error("refresh loop failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		if cfg.TLS.Enabled {
			serverErr <- httpServer.StartTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErr <- httpServer.Start()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	logger.Info("shutting down")
	cancel()

	if err := httpServer.Stop(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newStore selects the storage backend from config.
func newStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage == "redis" {
		return storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SnapshotTTL)
	}
	return storage.NewMemoryStore(), nil
}

// newPages builds one HTTP source per configured data URL, all sharing a
// client so fetch timeouts and TLS settings apply uniformly.
func newPages(cfg *config.Config) ([]sources.Source, error) {
	client, err := httpx.NewClient(tls.Config{}, cfg.FetchTimeout)
	if err != nil {
		return nil, err
	}

	urls := cfg.SourceURLs()
	pages := make([]sources.Source, 0, len(urls))
	for _, u := range urls {
		pages = append(pages, &sources.HTTPSource{
			URL:       u,
			UserAgent: cfg.UserAgent,
			Client:    client,
		})
	}
	return pages, nil
}
