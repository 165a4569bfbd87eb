// Package radar converts a preset's raw usage totals into the bounded
// radar scores shown on preset cards, by percentile-ranking each preset
// against its peers. A deterministic pure function of the peer set: no
// caching, no state — callers recompute whenever presets or stats change.
package radar

import (
	"github.com/ffui/benchcast/pkg/preset"
)

// Score is one radar axis value in [0, 5]. Valid false means the axis is
// undefined for this preset (no usage data yet); the UI omits the spoke
// rather than drawing a zero.
type Score struct {
	Value float64 `json:"value"`
	Valid bool    `json:"-"`
}

// Scores holds the three radar axes for one preset.
type Scores struct {
	Speed      Score `json:"speed,omitzero"`
	SizeSaving Score `json:"sizeSaving,omitzero"`
	Popularity Score `json:"popularity,omitzero"`
}

// Calibrate scores one preset against the full peer set (which includes
// the target itself).
//
// Each axis ranks only the peers with a defined value for that axis:
// a preset that never ran has no throughput or size ratio, and excluding
// it (rather than ranking it as zero) keeps one idle preset from skewing
// every other preset's percentile. The percentile maps linearly onto
// [1, 5]; a singleton population sits at the midpoint. Popularity has one
// extra rule: zero usage is "unused", pinned to 0 regardless of peers.
func Calibrate(target preset.Preset, peers []preset.Preset) Scores {
	var s Scores

	if v, ok := target.Stats.Throughput(); ok {
		pop := collect(peers, func(st preset.Stats) (float64, bool) { return st.Throughput() })
		s.Speed = scoreOf(v, pop, false)
	}

	if v, ok := target.Stats.SizeRatio(); ok {
		pop := collect(peers, func(st preset.Stats) (float64, bool) { return st.SizeRatio() })
		// Lower ratio = more compression = better: rank descending.
		s.SizeSaving = scoreOf(v, pop, true)
	}

	if target.Stats.UsageCount == 0 {
		// Unused is not "1st percentile among used presets".
		s.Popularity = Score{Value: 0, Valid: true}
	} else {
		pop := collect(peers, func(st preset.Stats) (float64, bool) {
			return float64(st.UsageCount), true
		})
		s.Popularity = scoreOf(float64(target.Stats.UsageCount), pop, false)
	}

	return s
}

// CalibrateAll scores every preset against the whole set, keyed by id.
func CalibrateAll(presets []preset.Preset) map[string]Scores {
	out := make(map[string]Scores, len(presets))
	for _, p := range presets {
		out[p.ID] = Calibrate(p, presets)
	}
	return out
}

// collect gathers the defined values for one axis across the peer set.
func collect(peers []preset.Preset, axis func(preset.Stats) (float64, bool)) []float64 {
	vals := make([]float64, 0, len(peers))
	for _, p := range peers {
		if v, ok := axis(p.Stats); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// scoreOf maps a value's fractional rank within its population onto
// [1, 5]: score = 1 + 4*percentile, where percentile counts peers strictly
// below (or strictly above, when inverted) over population-1. Ties share a
// rank. A singleton population has no rank; it gets the midpoint.
func scoreOf(v float64, population []float64, inverted bool) Score {
	n := len(population)
	if n <= 1 {
		return Score{Value: 3, Valid: true}
	}

	better := 0
	for _, p := range population {
		if (!inverted && p < v) || (inverted && p > v) {
			better++
		}
	}
	percentile := float64(better) / float64(n-1)

	return Score{Value: clamp(1+4*percentile, 0, 5), Valid: true}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
