package predict

import (
	"github.com/ffui/benchcast/pkg/benchdata"
)

// ValueSource tells the caller how a predicted value was obtained, so the
// UI can label clamped numbers as approximate.
type ValueSource string

const (
	// SourceExact: the curve holds a sample at exactly the requested x.
	SourceExact ValueSource = "exact"
	// SourceInterpolated: linear interpolation between two neighbors.
	SourceInterpolated ValueSource = "interpolated"
	// SourceClamped: the requested x fell outside the curve's domain and
	// the boundary sample's y was returned.
	SourceClamped ValueSource = "clamped"
)

// Value is one predicted metric value. Valid distinguishes "no dataset
// matched" from a real zero; callers must check it before reading Value.
// The float is full precision; rounding for display happens exactly once,
// in the presentation layer.
type Value struct {
	Value  float64     `json:"value"`
	Source ValueSource `json:"source"`
	Valid  bool        `json:"-"`
}

// ValueAt reads the curve's metric value at quality x.
//
// Exact sample hits return the stored y untouched. An x between two
// samples interpolates linearly. An x outside [MinX, MaxX] clamps to the
// nearest boundary sample and is flagged SourceClamped rather than
// extrapolated, since benchmark curves say nothing beyond their domain.
//
// Datasets with fewer than two points are never emitted by the parser;
// ValueAt returns an invalid Value for them anyway rather than guessing.
func ValueAt(d benchdata.Dataset, x float64) Value {
	pts := d.Points
	if len(pts) < 2 {
		return Value{}
	}

	if x <= pts[0][0] {
		if x == pts[0][0] {
			return Value{Value: pts[0][1], Source: SourceExact, Valid: true}
		}
		return Value{Value: pts[0][1], Source: SourceClamped, Valid: true}
	}
	last := pts[len(pts)-1]
	if x >= last[0] {
		if x == last[0] {
			return Value{Value: last[1], Source: SourceExact, Valid: true}
		}
		return Value{Value: last[1], Source: SourceClamped, Valid: true}
	}

	// Points are sorted ascending with distinct x, so x sits strictly
	// inside some segment [i, i+1].
	for i := 1; i < len(pts); i++ {
		x1, y1 := pts[i][0], pts[i][1]
		if x > x1 {
			continue
		}
		if x == x1 {
			return Value{Value: y1, Source: SourceExact, Valid: true}
		}
		x0, y0 := pts[i-1][0], pts[i-1][1]
		t := (x - x0) / (x1 - x0)
		return Value{Value: y0 + (y1-y0)*t, Source: SourceInterpolated, Valid: true}
	}

	// Unreachable with sorted points.
	return Value{}
}
