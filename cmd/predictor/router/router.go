// Package router configures HTTP routes for the predictor's API.
//
// Routes configured:
//   - GET /predict - Predict metrics for encoder settings from the snapshot
//   - POST /radar - Percentile-calibrate radar scores for a preset set
//   - GET /snapshot/current?source=<name> - Retrieve the raw snapshot document
//   - GET /healthz - Health check (503 until a snapshot exists)
//   - GET /metrics - Prometheus metrics endpoint
//
// Prediction responses always carry a datasetKey field; it is JSON null
// when no benchmark curve matched the encoder. Metrics the snapshot has
// no curve for are omitted entirely, so clients can distinguish "no data"
// from a predicted zero. Snapshots older than the stale threshold include
// an X-Benchcast-Stale header.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ffui/benchcast/cmd/predictor/metrics"
	"github.com/ffui/benchcast/pkg/httpx"
	"github.com/ffui/benchcast/pkg/predict"
	"github.com/ffui/benchcast/pkg/preset"
	"github.com/ffui/benchcast/pkg/radar"
	"github.com/ffui/benchcast/pkg/storage"
)

var sourceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]{0,251}[a-zA-Z0-9])?$`)

const maxRadarBodyBytes = 4 << 20

// SetupRoutes configures the predictor's HTTP endpoints. defaultSource is
// the snapshot consulted when a request names no source; m may be nil.
func SetupRoutes(store storage.Store, engine *predict.Engine, defaultSource string, staleAfter time.Duration, m *metrics.Metrics, logger *slog.Logger) *http.ServeMux {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.Handle("/healthz", httpx.HealthHandler(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, found, err := store.GetLatest(ctx, defaultSource)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no snapshot for source %q yet", defaultSource)
		}
		return nil
	}))

	mux.HandleFunc("/predict", handlePredict(store, engine, defaultSource, m, logger))
	mux.HandleFunc("/radar", handleRadar(m, logger))
	mux.HandleFunc("/snapshot/current", handleGetSnapshot(store, defaultSource, staleAfter, logger))

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// handlePredict serves GET /predict?encoder=<e>&rateControl=<rc>&quality=<q>[&hint=<h>][&source=<s>].
func handlePredict(store storage.Store, engine *predict.Engine, defaultSource string, m *metrics.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httpx.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		q := r.URL.Query()
		req := predict.Request{
			Encoder:      q.Get("encoder"),
			RateControl:  q.Get("rateControl"),
			HardwareHint: q.Get("hint"),
		}
		if req.Encoder == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "encoder parameter required")
			return
		}
		if req.RateControl == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "rateControl parameter required")
			return
		}
		if raw := q.Get("quality"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				httpx.WriteErrorMessage(w, http.StatusBadRequest, "invalid quality value")
				return
			}
			req.QualityValue = v
		}

		source, ok := sourceParam(w, q.Get("source"), defaultSource)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		snap, found, err := store.GetLatest(ctx, source)
		if err != nil {
			logger.Error("get snapshot", "source", source, "error", err)
			if m != nil {
				m.RecordError("store", "get_failed")
			}
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !found {
			httpx.WriteErrorMessage(w, http.StatusServiceUnavailable, fmt.Sprintf("no snapshot for source %q yet", source))
			return
		}

		p := engine.Predict(snap, req)
		if m != nil {
			m.RecordPrediction(predictionOutcome(req, p))
		}

		httpx.WriteJSON(w, http.StatusOK, predictionResponse(p))
	}
}

func predictionOutcome(req predict.Request, p predict.Prediction) string {
	switch req.RateControl {
	case preset.RateControlCRF, preset.RateControlCQ, preset.RateControlQP:
	default:
		return "bitrate_mode"
	}
	if !p.HasDataset {
		return "no_dataset"
	}
	return "ok"
}

// predictionResponse flattens a Prediction into the wire shape: datasetKey
// is explicit null when no curve matched, and absent metrics are omitted.
func predictionResponse(p predict.Prediction) map[string]any {
	resp := map[string]any{"datasetKey": nil}
	if p.HasDataset {
		resp["datasetKey"] = p.DatasetKey
	}
	for name, v := range map[string]predict.Value{
		"vmaf":    p.VMAF,
		"ssim":    p.SSIM,
		"fps":     p.FPS,
		"bitrate": p.Bitrate,
	} {
		if v.Valid {
			resp[name] = map[string]any{"value": v.Value, "source": v.Source}
		}
	}
	return resp
}

// radarRequest is the POST /radar body: the full peer set to rank.
type radarRequest struct {
	Presets []preset.Preset `json:"presets"`
}

// handleRadar serves POST /radar. Scores are plain numbers per axis;
// undefined axes are omitted from the preset's entry.
func handleRadar(m *metrics.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req radarRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRadarBodyBytes))
		if err := dec.Decode(&req); err != nil {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if len(req.Presets) == 0 {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "presets list required")
			return
		}
		for i, p := range req.Presets {
			if p.ID == "" {
				httpx.WriteErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("presets[%d]: id required", i))
				return
			}
		}

		scores := radar.CalibrateAll(req.Presets)
		if m != nil {
			m.RecordCalibration()
		}

		out := make(map[string]any, len(scores))
		for id, s := range scores {
			entry := map[string]any{}
			if s.Speed.Valid {
				entry["speed"] = s.Speed.Value
			}
			if s.SizeSaving.Valid {
				entry["sizeSaving"] = s.SizeSaving.Value
			}
			if s.Popularity.Valid {
				entry["popularity"] = s.Popularity.Value
			}
			out[id] = entry
		}

		httpx.WriteJSON(w, http.StatusOK, map[string]any{"scores": out})
	}
}

// handleGetSnapshot serves GET /snapshot/current?source=<name>, returning
// the canonical snapshot document.
func handleGetSnapshot(store storage.Store, defaultSource string, staleAfter time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source, ok := sourceParam(w, r.URL.Query().Get("source"), defaultSource)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		snap, found, err := store.GetLatest(ctx, source)
		if err != nil {
			logger.Error("get snapshot", "source", source, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("snapshot not found for source %q", source))
			return
		}

		if fetched, err := time.Parse(time.RFC3339, snap.Source.FetchedAt); err == nil {
			if time.Since(fetched) > staleAfter {
				w.Header().Set("X-Benchcast-Stale", "true")
			}
		}

		data, err := snap.MarshalCanonical()
		if err != nil {
			logger.Error("marshal snapshot", "source", source, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func sourceParam(w http.ResponseWriter, raw, defaultSource string) (string, bool) {
	if raw == "" {
		return defaultSource, true
	}
	if !sourceNameRegex.MatchString(raw) {
		httpx.WriteErrorMessage(w, http.StatusBadRequest, "invalid source name format")
		return "", false
	}
	return raw, true
}
