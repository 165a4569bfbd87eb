// Package main implements the snapshot refresh loop orchestration.
//
// This file contains the Refresher type which drives the pipeline:
//
//	fetch pages → parse datasets → merge batches → store snapshot
//
// The Refresher runs continuously via Run(), executing Tick() at regular
// intervals. Each tick rebuilds the snapshot from the configured pages;
// a failed tick leaves the previously stored snapshot in place, so the
// API keeps serving the last good data across upstream outages.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ffui/benchcast/cmd/predictor/metrics"
	"github.com/ffui/benchcast/pkg/benchdata"
	"github.com/ffui/benchcast/pkg/sources"
	"github.com/ffui/benchcast/pkg/storage"
)

// Refresher orchestrates the refresh loop: fetch → parse → merge → store.
type Refresher struct {
	sourceName  string
	pages       []sources.Source
	homepageURL string
	title       string
	store       storage.Store
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewRefresher creates a Refresher. Pages are fetched and merged in
// order, so the freshest page must come last: on dataset collisions the
// later batch wins.
func NewRefresher(
	sourceName string,
	pages []sources.Source,
	homepageURL, title string,
	store storage.Store,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		sourceName:  sourceName,
		pages:       pages,
		homepageURL: homepageURL,
		title:       title,
		store:       store,
		logger:      logger,
		metrics:     m,
	}
}

// Run executes the refresh loop at regular intervals.
// Blocks until context is canceled.
func (rf *Refresher) Run(ctx context.Context, interval time.Duration) error {
	rf.logger.Info("starting refresh loop", "interval", interval, "pages", len(rf.pages))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := rf.Tick(ctx); err != nil {
		rf.logger.Error("initial refresh tick failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			rf.logger.Info("refresh loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := rf.Tick(ctx); err != nil {
				rf.logger.Error("refresh tick failed", "error", err)
			}
		}
	}
}

// Tick performs one refresh cycle. Exported for testing purposes.
//
// A page that fails to fetch or yields no datasets is skipped; the tick
// fails only when every page does, and a failed tick never overwrites the
// stored snapshot.
func (rf *Refresher) Tick(ctx context.Context) error {
	start := time.Now()
	rf.logger.Debug("starting refresh tick")

	var batches [][]benchdata.Dataset
	var last sources.Page

	for _, src := range rf.pages {
		page, err := rf.fetch(ctx, src)
		if err != nil {
			if rf.metrics != nil {
				rf.metrics.RecordError("source", "fetch_failed")
			}
			rf.logger.Warn("page fetch failed, skipping", "source", src.Name(), "error", err)
			continue
		}

		datasets, err := rf.parse(page)
		if err != nil {
			if rf.metrics != nil {
				rf.metrics.RecordError("parser", "no_data")
			}
			rf.logger.Warn("page yielded no datasets, skipping", "url", page.URL, "error", err)
			continue
		}

		batches = append(batches, datasets)
		last = page
	}

	if len(batches) == 0 {
		if rf.metrics != nil {
			rf.metrics.RecordError("refresher", "all_pages_failed")
		}
		return fmt.Errorf("refresh: no usable pages out of %d", len(rf.pages))
	}

	snap := benchdata.Merge(benchdata.SourceInfo{
		HomepageURL: rf.homepageURL,
		DataURL:     last.URL,
		Title:       rf.title,
		FetchedAt:   last.FetchedAt.Format(time.RFC3339),
	}, batches...)

	if err := rf.store.Put(ctx, rf.sourceName, snap); err != nil {
		if rf.metrics != nil {
			rf.metrics.RecordError("store", "put_failed")
		}
		return fmt.Errorf("store snapshot: %w", err)
	}

	if rf.metrics != nil {
		rf.metrics.SetSnapshotAge(0)
		rf.metrics.SetSnapshotDatasets(len(snap.Datasets))
	}

	rf.logger.Info("refresh tick complete",
		"source", rf.sourceName,
		"pages_used", len(batches),
		"datasets", len(snap.Datasets),
		"data_url", last.URL,
		"total_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// fetch retrieves one page and records its duration.
func (rf *Refresher) fetch(ctx context.Context, src sources.Source) (sources.Page, error) {
	start := time.Now()

	page, err := src.Fetch(ctx)
	if err != nil {
		return sources.Page{}, err
	}

	duration := time.Since(start)
	if rf.metrics != nil {
		rf.metrics.RecordFetch(duration.Seconds())
	}

	rf.logger.Debug("fetched page",
		"source", src.Name(),
		"url", page.URL,
		"bytes", len(page.Body),
		"duration_ms", duration.Milliseconds(),
	)
	return page, nil
}

// parse extracts datasets from a fetched page and records its duration.
func (rf *Refresher) parse(page sources.Page) ([]benchdata.Dataset, error) {
	start := time.Now()

	datasets, err := benchdata.Parse(page.Body)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if rf.metrics != nil {
		rf.metrics.RecordParse(duration.Seconds())
	}

	rf.logger.Debug("parsed page",
		"url", page.URL,
		"datasets", len(datasets),
		"duration_ms", duration.Milliseconds(),
	)
	return datasets, nil
}
