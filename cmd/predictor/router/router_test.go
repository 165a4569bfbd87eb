package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ffui/benchcast/pkg/benchdata"
	"github.com/ffui/benchcast/pkg/predict"
	"github.com/ffui/benchcast/pkg/storage"
)

func testMux(t *testing.T, snap *benchdata.Snapshot) *http.ServeMux {
	t.Helper()
	store := storage.NewMemoryStore()
	if snap != nil {
		if err := store.Put(context.Background(), "default", *snap); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return SetupRoutes(store, predict.NewEngine(nil), "default", 2*time.Hour, nil, logger)
}

func testSnapshot(fetchedAt string) benchdata.Snapshot {
	return benchdata.Snapshot{
		Source: benchdata.SourceInfo{
			HomepageURL: "https://bench.example.com",
			DataURL:     "https://bench.example.com/data.js",
			FetchedAt:   fetchedAt,
		},
		Datasets: []benchdata.Dataset{
			{Set: 1, Metric: "vmaf", Key: "libx264", Label: "Ryzen 7600",
				Points: [][2]float64{{20, 90}, {24, 85}, {28, 78}}},
			{Set: 1, Metric: "fps", Key: "libx264", Label: "Ryzen 7600",
				Points: [][2]float64{{20, 30}, {28, 60}}},
		},
	}
}

func TestHealthz(t *testing.T) {
	mux := testMux(t, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("empty store health = %d, want 503", w.Code)
	}

	snap := testSnapshot("2025-06-01T12:00:00Z")
	mux = testMux(t, &snap)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("seeded store health = %d, want 200", w.Code)
	}
}

func TestPredict_Success(t *testing.T) {
	snap := testSnapshot("2025-06-01T12:00:00Z")
	mux := testMux(t, &snap)

	req := httptest.NewRequest(http.MethodGet,
		"/predict?encoder=libx264&rateControl=crf&quality=24", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		DatasetKey *string `json:"datasetKey"`
		VMAF       *struct {
			Value  float64 `json:"value"`
			Source string  `json:"source"`
		} `json:"vmaf"`
		FPS *struct {
			Value  float64 `json:"value"`
			Source string  `json:"source"`
		} `json:"fps"`
		SSIM *json.RawMessage `json:"ssim"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.DatasetKey == nil || *resp.DatasetKey != "libx264" {
		t.Errorf("datasetKey = %v, want libx264", resp.DatasetKey)
	}
	// crf 24 is a sampled point on the vmaf curve.
	if resp.VMAF == nil || resp.VMAF.Value != 85 || resp.VMAF.Source != "exact" {
		t.Errorf("vmaf = %+v, want 85 exact", resp.VMAF)
	}
	// fps has samples at 20 and 28 only: 24 interpolates to 45.
	if resp.FPS == nil || resp.FPS.Value != 45 || resp.FPS.Source != "interpolated" {
		t.Errorf("fps = %+v, want 45 interpolated", resp.FPS)
	}
	// No ssim curve in the snapshot: the field must be absent.
	if resp.SSIM != nil {
		t.Errorf("ssim present: %s", *resp.SSIM)
	}
}

func TestPredict_NoDatasetIsNull(t *testing.T) {
	snap := testSnapshot("2025-06-01T12:00:00Z")
	mux := testMux(t, &snap)

	req := httptest.NewRequest(http.MethodGet,
		"/predict?encoder=unknown_codec_x&rateControl=crf&quality=24", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	// datasetKey must be an explicit null, not omitted.
	if !strings.Contains(w.Body.String(), `"datasetKey":null`) {
		t.Errorf("body %s, want explicit datasetKey null", w.Body.String())
	}
}

func TestPredict_BadRequest(t *testing.T) {
	snap := testSnapshot("2025-06-01T12:00:00Z")
	mux := testMux(t, &snap)

	for _, url := range []string{
		"/predict?rateControl=crf&quality=24",
		"/predict?encoder=libx264&quality=24",
		"/predict?encoder=libx264&rateControl=crf&quality=abc",
		"/predict?encoder=libx264&rateControl=crf&quality=24&source=bad/name",
	} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, w.Code)
		}
	}
}

func TestPredict_NoSnapshot(t *testing.T) {
	mux := testMux(t, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/predict?encoder=libx264&rateControl=crf&quality=24", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestRadar(t *testing.T) {
	mux := testMux(t, nil)

	body := `{"presets":[
		{"id":"a","name":"Slow","stats":{"usageCount":5,"totalInputSizeMB":100,"totalOutputSizeMB":30,"totalTimeSeconds":100}},
		{"id":"b","name":"Fast","stats":{"usageCount":10,"totalInputSizeMB":100,"totalOutputSizeMB":90,"totalTimeSeconds":10}},
		{"id":"c","name":"Idle","stats":{"usageCount":0}}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/radar", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Scores map[string]map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	// a: 1 MB/s vs b's 10 MB/s → lower speed rank; ratio 0.3 vs 0.9 →
	// best size saving. Both ranked over a two-preset population.
	a := resp.Scores["a"]
	if a["speed"] != 1 || a["sizeSaving"] != 5 {
		t.Errorf("a = %v, want speed 1 sizeSaving 5", a)
	}
	b := resp.Scores["b"]
	if b["speed"] != 5 || b["sizeSaving"] != 1 {
		t.Errorf("b = %v, want speed 5 sizeSaving 1", b)
	}
	// c never ran: no speed/sizeSaving axes, popularity pinned to 0.
	c := resp.Scores["c"]
	if _, ok := c["speed"]; ok {
		t.Errorf("c has speed axis: %v", c)
	}
	if got, ok := c["popularity"]; !ok || got != 0 {
		t.Errorf("c popularity = %v, want 0", c)
	}
}

func TestRadar_BadRequest(t *testing.T) {
	mux := testMux(t, nil)

	for _, body := range []string{"", "{", `{"presets":[]}`, `{"presets":[{"name":"no id"}]}`} {
		req := httptest.NewRequest(http.MethodPost, "/radar", strings.NewReader(body))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/radar", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /radar: status = %d, want 405", w.Code)
	}
}

func TestGetSnapshot(t *testing.T) {
	snap := testSnapshot(time.Now().UTC().Format(time.RFC3339))
	mux := testMux(t, &snap)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/snapshot/current", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Benchcast-Stale") == "true" {
		t.Error("fresh snapshot marked stale")
	}

	want, _ := snap.MarshalCanonical()
	if w.Body.String() != string(want) {
		t.Errorf("body is not the canonical document:\n%s\nvs\n%s", w.Body.String(), want)
	}
}

func TestGetSnapshot_Stale(t *testing.T) {
	snap := testSnapshot(time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339))
	mux := testMux(t, &snap)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/snapshot/current", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-Benchcast-Stale") != "true" {
		t.Error("day-old snapshot not marked stale")
	}
}

func TestGetSnapshot_NotFound(t *testing.T) {
	mux := testMux(t, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/snapshot/current?source=other", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux := testMux(t, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("Content-Type") == "" {
		t.Error("metrics endpoint missing Content-Type")
	}
}
