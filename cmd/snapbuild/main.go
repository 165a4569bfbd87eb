// Command snapbuild builds a benchmark snapshot offline.
//
// It fetches or reads one or more benchmark pages, extracts their
// datasets, merges them (later pages win on collisions) and writes the
// canonical snapshot document. The output is byte-for-byte reproducible
// for the same inputs, so snapshots can be committed or diffed.
//
// Pages may be URLs or local file paths, listed oldest first:
//
//	snapbuild \
//	  -pages=archive/2024.html,https://bench.example.com/latest.html \
//	  -homepage-url=https://bench.example.com \
//	  -title="Example Benchmarks" \
//	  -out=snapshot.json
//
// With -out=- the document goes to stdout. With -redis-addr set the
// snapshot is additionally stored in Redis under -source-name, which
// pre-seeds a predictor deployment before its first refresh.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ffui/benchcast/pkg/benchdata"
	"github.com/ffui/benchcast/pkg/sources"
	"github.com/ffui/benchcast/pkg/storage"
)

func main() {
	var (
		pagesArg      = flag.String("pages", "", "Comma-separated page URLs or file paths, freshest last (required)")
		homepageURL   = flag.String("homepage-url", "", "Benchmark site homepage URL for snapshot provenance")
		title         = flag.String("title", "", "Human-readable benchmark source title")
		userAgent     = flag.String("user-agent", "", "User-Agent header for page fetches")
		fetchTimeout  = flag.Duration("fetch-timeout", 30*time.Second, "Per-page fetch timeout")
		out           = flag.String("out", "-", "Output file path, or - for stdout")
		redisAddr     = flag.String("redis-addr", "", "Also store the snapshot in Redis at this address")
		redisPassword = flag.String("redis-password", "", "Redis password")
		redisDB       = flag.Int("redis-db", 0, "Redis database number")
		snapshotTTL   = flag.Duration("snapshot-ttl", 24*time.Hour, "Stored snapshot TTL")
		sourceName    = flag.String("source-name", "default", "Name the snapshot is stored under in Redis")
		logLevel      = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	if *pagesArg == "" {
		fmt.Fprintln(os.Stderr, "Error: --pages is required")
		os.Exit(1)
	}

	if err := run(*pagesArg, *homepageURL, *title, *userAgent, *fetchTimeout, *out,
		*redisAddr, *redisPassword, *redisDB, *snapshotTTL, *sourceName, logger); err != nil {
		logger.Error("snapshot build failed", "error", err)
		os.Exit(1)
	}
}

func run(pagesArg, homepageURL, title, userAgent string, fetchTimeout time.Duration,
	out, redisAddr, redisPassword string, redisDB int, snapshotTTL time.Duration,
	sourceName string, logger *slog.Logger,
) error {
	ctx := context.Background()

	pages := buildSources(pagesArg, userAgent, fetchTimeout)
	if len(pages) == 0 {
		return fmt.Errorf("no pages given")
	}

	var batches [][]benchdata.Dataset
	var last sources.Page
	for _, src := range pages {
		page, err := src.Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetch page: %w", err)
		}
		datasets, err := benchdata.Parse(page.Body)
		if err != nil {
			return fmt.Errorf("parse %s: %w", page.URL, err)
		}
		logger.Info("parsed page", "url", page.URL, "datasets", len(datasets))
		batches = append(batches, datasets)
		last = page
	}

	snap := benchdata.Merge(benchdata.SourceInfo{
		HomepageURL: homepageURL,
		DataURL:     last.URL,
		Title:       title,
		FetchedAt:   last.FetchedAt.Format(time.RFC3339),
	}, batches...)

	data, err := snap.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := writeOutput(out, data); err != nil {
		return err
	}
	logger.Info("snapshot built", "datasets", len(snap.Datasets), "bytes", len(data), "out", out)

	if redisAddr != "" {
		store, err := storage.NewRedisStore(redisAddr, redisPassword, redisDB, snapshotTTL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer store.Close()

		if err := store.Put(ctx, sourceName, snap); err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
		logger.Info("snapshot stored in redis", "source", sourceName, "addr", redisAddr)
	}

	return nil
}

// buildSources maps each page argument onto a source: anything with an
// http(s) scheme is fetched, everything else is read from disk.
func buildSources(pagesArg, userAgent string, fetchTimeout time.Duration) []sources.Source {
	var out []sources.Source
	for _, p := range strings.Split(pagesArg, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
			out = append(out, &sources.HTTPSource{URL: p, UserAgent: userAgent, Timeout: fetchTimeout})
		} else {
			out = append(out, &sources.FileSource{Path: p})
		}
	}
	return out
}

func writeOutput(out string, data []byte) error {
	if out == "-" {
		if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	// Logs go to stderr so -out=- keeps stdout clean for the document.
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
