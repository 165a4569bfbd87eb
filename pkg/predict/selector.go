package predict

import (
	"strings"

	"github.com/ffui/benchcast/pkg/benchdata"
	"github.com/ffui/benchcast/pkg/preset"
)

// Request identifies the preset settings a prediction is wanted for.
// HardwareHint optionally names the machine's GPU/CPU model so curves
// captured on similar hardware are preferred.
type Request struct {
	Encoder      string  `json:"encoder"`
	RateControl  string  `json:"rateControl"`
	QualityValue float64 `json:"qualityValue"`
	HardwareHint string  `json:"hardwareModelNameHint,omitempty"`
}

// Prediction is the engine's answer for one request. HasDataset false (and
// DatasetKey empty) means no benchmark curve matched the encoder at all —
// a normal outcome for unbenchmarked encoders, not an error. Individual
// metrics may be absent (Valid false) even when a key matched, since a
// source rarely covers every metric for every encoder.
type Prediction struct {
	DatasetKey string `json:"datasetKey"`
	HasDataset bool   `json:"-"`

	VMAF    Value `json:"vmaf,omitzero"`
	SSIM    Value `json:"ssim,omitzero"`
	FPS     Value `json:"fps,omitzero"`
	Bitrate Value `json:"bitrate,omitzero"`
}

// Engine resolves requests against a snapshot using an injected encoder
// family table. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	families *FamilyTable
}

// NewEngine creates a prediction engine. A nil table gets the defaults.
func NewEngine(families *FamilyTable) *Engine {
	if families == nil {
		families = DefaultFamilies()
	}
	return &Engine{families: families}
}

// predictedMetrics is the fixed set of metrics a prediction reports on.
var predictedMetrics = []string{
	benchdata.MetricVMAF,
	benchdata.MetricSSIM,
	benchdata.MetricFPS,
	benchdata.MetricBitrate,
}

// Predict resolves the best-matching dataset per metric and reads each
// curve at the request's quality value. Rate-control modes without a
// quality axis (cbr, vbr) and unknown encoders yield the empty prediction.
func (e *Engine) Predict(snap benchdata.Snapshot, req Request) Prediction {
	var p Prediction

	switch req.RateControl {
	case preset.RateControlCRF, preset.RateControlCQ, preset.RateControlQP:
	default:
		return p
	}

	candidates := e.families.Candidates(req.Encoder)
	if len(candidates) == 0 {
		return p
	}

	for _, metric := range predictedMetrics {
		d, key, ok := selectDataset(snap, candidates, metric, req.HardwareHint)
		if !ok {
			continue
		}
		v := ValueAt(d, req.QualityValue)
		if !v.Valid {
			continue
		}
		if !p.HasDataset {
			p.DatasetKey = key
			p.HasDataset = true
		}
		switch metric {
		case benchdata.MetricVMAF:
			p.VMAF = v
		case benchdata.MetricSSIM:
			p.SSIM = v
		case benchdata.MetricFPS:
			p.FPS = v
		case benchdata.MetricBitrate:
			p.Bitrate = v
		}
	}
	return p
}

// selectDataset picks the dataset for one metric. Candidate keys are tried
// in order; the first key with any dataset for the metric wins. Among that
// key's capture sets, a hardware hint prefers the dataset whose label
// contains the hint (case-insensitive substring — benchmark hardware
// labels are too inconsistently formatted for exact matching); without a
// hint, or when no label matches, the lowest set id is the deterministic
// default.
func selectDataset(snap benchdata.Snapshot, candidates []string, metric, hint string) (benchdata.Dataset, string, bool) {
	hint = strings.ToLower(strings.TrimSpace(hint))

	for _, key := range candidates {
		var best benchdata.Dataset
		bestRank := -1 // 1 = hint match, 0 = default; higher wins

		for _, d := range snap.Datasets {
			if d.Key != key || d.Metric != metric {
				continue
			}
			rank := 0
			if hint != "" && strings.Contains(strings.ToLower(d.Label), hint) {
				rank = 1
			}
			if rank > bestRank || (rank == bestRank && d.Set < best.Set) {
				best = d
				bestRank = rank
			}
		}
		if bestRank >= 0 {
			return best, key, true
		}
	}
	return benchdata.Dataset{}, "", false
}
