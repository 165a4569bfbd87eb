package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ffui/benchcast/pkg/sources"
	"github.com/ffui/benchcast/pkg/storage"
)

// fakePage is a canned Source for refresher tests.
type fakePage struct {
	page sources.Page
	err  error
}

func (f *fakePage) Name() string { return "fake" }

func (f *fakePage) Fetch(ctx context.Context) (sources.Page, error) {
	if f.err != nil {
		return sources.Page{}, f.err
	}
	return f.page, nil
}

const archivePage = `<script>
benchData.push({
	"set": 1,
	"label": "Ryzen 7600",
	"metric": "vmaf",
	"series": {
		"libx264": [[20, 90], [24, 85]],
		"libx265": [[20, 93], [24, 89]]
	}
});
</script>`

const latestPage = `<script>
benchData.push({
	"set": 1,
	"label": "Ryzen 7600",
	"metric": "vmaf",
	"series": {
		"libx264": [[20, 91], [24, 86]]
	}
});
</script>`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefresher_Tick(t *testing.T) {
	fetched := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	pages := []sources.Source{
		&fakePage{page: sources.Page{URL: "https://b.example/archive", Body: archivePage, FetchedAt: fetched.Add(-24 * time.Hour)}},
		&fakePage{page: sources.Page{URL: "https://b.example/latest", Body: latestPage, FetchedAt: fetched}},
	}
	store := storage.NewMemoryStore()
	rf := NewRefresher("default", pages, "https://b.example", "Example Bench", store, discard(), nil)

	if err := rf.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	snap, found, err := store.GetLatest(context.Background(), "default")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}

	// Provenance comes from the last (freshest) page.
	if snap.Source.DataURL != "https://b.example/latest" {
		t.Errorf("data url = %q", snap.Source.DataURL)
	}
	if snap.Source.FetchedAt != "2025-06-01T12:00:00Z" {
		t.Errorf("fetched at = %q", snap.Source.FetchedAt)
	}
	if snap.Source.HomepageURL != "https://b.example" || snap.Source.Title != "Example Bench" {
		t.Errorf("source info = %+v", snap.Source)
	}

	// libx264 collides across pages: the later page's curve wins.
	// libx265 only exists in the archive and survives the merge.
	if len(snap.Datasets) != 2 {
		t.Fatalf("got %d datasets, want 2", len(snap.Datasets))
	}
	for _, d := range snap.Datasets {
		if d.Key == "libx264" && d.Points[0][1] != 91 {
			t.Errorf("libx264 curve = %v, want the latest page's values", d.Points)
		}
	}
}

func TestRefresher_SkipsFailedPage(t *testing.T) {
	pages := []sources.Source{
		&fakePage{err: errors.New("connection refused")},
		&fakePage{page: sources.Page{URL: "https://b.example/latest", Body: latestPage, FetchedAt: time.Now()}},
	}
	store := storage.NewMemoryStore()
	rf := NewRefresher("default", pages, "", "", store, discard(), nil)

	if err := rf.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if _, found, _ := store.GetLatest(context.Background(), "default"); !found {
		t.Fatal("no snapshot stored despite one good page")
	}
}

func TestRefresher_AllPagesFailedKeepsPrevious(t *testing.T) {
	store := storage.NewMemoryStore()

	good := []sources.Source{
		&fakePage{page: sources.Page{URL: "https://b.example/latest", Body: latestPage, FetchedAt: time.Now()}},
	}
	if err := NewRefresher("default", good, "", "", store, discard(), nil).Tick(context.Background()); err != nil {
		t.Fatalf("seed tick: %v", err)
	}

	bad := []sources.Source{
		&fakePage{err: errors.New("timeout")},
		&fakePage{page: sources.Page{URL: "https://b.example/empty", Body: "<html>no data</html>", FetchedAt: time.Now()}},
	}
	if err := NewRefresher("default", bad, "", "", store, discard(), nil).Tick(context.Background()); err == nil {
		t.Fatal("expected error when every page fails")
	}

	// The previous snapshot must still be served.
	snap, found, _ := store.GetLatest(context.Background(), "default")
	if !found || len(snap.Datasets) != 1 {
		t.Fatalf("previous snapshot lost: found=%v datasets=%d", found, len(snap.Datasets))
	}
}
