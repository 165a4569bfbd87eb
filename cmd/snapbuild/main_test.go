package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ffui/benchcast/pkg/benchdata"
	"github.com/ffui/benchcast/pkg/sources"
)

const testPage = `<script>
benchData.push({
	"set": 1,
	"label": "Ryzen 7600",
	"metric": "vmaf",
	"series": {
		"libx264": [[20, 90], [24, 85]]
	}
});
</script>`

func TestBuildSources(t *testing.T) {
	got := buildSources("archive/old.html, https://b.example/latest.html", "ua", 10*time.Second)
	if len(got) != 2 {
		t.Fatalf("got %d sources, want 2", len(got))
	}
	if f, ok := got[0].(*sources.FileSource); !ok || f.Path != "archive/old.html" {
		t.Errorf("sources[0] = %#v, want file source", got[0])
	}
	if h, ok := got[1].(*sources.HTTPSource); !ok || h.URL != "https://b.example/latest.html" || h.UserAgent != "ua" {
		t.Errorf("sources[1] = %#v, want http source", got[1])
	}
}

func TestRun_FileToFile(t *testing.T) {
	dir := t.TempDir()
	pagePath := filepath.Join(dir, "page.html")
	if err := os.WriteFile(pagePath, []byte(testPage), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "snapshot.json")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(pagePath, "https://b.example", "Example Bench", "", 10*time.Second,
		outPath, "", "", 0, time.Hour, "default", logger)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := benchdata.Load(data)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if len(snap.Datasets) != 1 || snap.Datasets[0].Key != "libx264" {
		t.Fatalf("datasets = %+v", snap.Datasets)
	}
	if snap.Source.HomepageURL != "https://b.example" || snap.Source.Title != "Example Bench" {
		t.Errorf("source = %+v", snap.Source)
	}

	// The written document is the canonical form.
	want, _ := snap.MarshalCanonical()
	if !bytes.Equal(data, want) {
		t.Error("output is not canonical JSON")
	}
}

func TestRun_NoDataFails(t *testing.T) {
	dir := t.TempDir()
	pagePath := filepath.Join(dir, "empty.html")
	if err := os.WriteFile(pagePath, []byte("<html>nothing here</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(pagePath, "", "", "", 10*time.Second,
		filepath.Join(dir, "out.json"), "", "", 0, time.Hour, "default", logger)
	if err == nil {
		t.Fatal("expected error for page without benchmark data")
	}
}
