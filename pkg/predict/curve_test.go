package predict

import (
	"testing"

	"github.com/ffui/benchcast/pkg/benchdata"
)

func curve(points ...[2]float64) benchdata.Dataset {
	return benchdata.Dataset{Set: 1, Metric: "vmaf", Key: "libx264", Points: points}
}

func TestValueAt_ExactSample(t *testing.T) {
	d := curve([2]float64{20, 90}, [2]float64{24, 85}, [2]float64{28, 78})

	v := ValueAt(d, 24)
	if !v.Valid || v.Source != SourceExact {
		t.Fatalf("got %+v, want exact hit", v)
	}
	if v.Value != 85 {
		t.Fatalf("got %v, want exactly 85", v.Value)
	}

	// Boundary samples are exact hits too, not clamps.
	if v := ValueAt(d, 20); v.Source != SourceExact || v.Value != 90 {
		t.Fatalf("got %+v, want exact 90", v)
	}
	if v := ValueAt(d, 28); v.Source != SourceExact || v.Value != 78 {
		t.Fatalf("got %+v, want exact 78", v)
	}
}

func TestValueAt_Interpolation(t *testing.T) {
	d := curve([2]float64{20, 90}, [2]float64{24, 85}, [2]float64{28, 78})

	// 90 + (85-90)*(22-20)/(24-20) = 87.5
	v := ValueAt(d, 22)
	if !v.Valid || v.Source != SourceInterpolated {
		t.Fatalf("got %+v, want interpolated", v)
	}
	if v.Value != 87.5 {
		t.Fatalf("got %v, want 87.5", v.Value)
	}

	// 85 + (78-85)*(27-24)/(28-24) = 79.75
	if v := ValueAt(d, 27); v.Value != 79.75 {
		t.Fatalf("got %v, want 79.75", v.Value)
	}
}

func TestValueAt_BoundaryClamp(t *testing.T) {
	d := curve([2]float64{20, 90}, [2]float64{24, 85}, [2]float64{28, 78})

	low := ValueAt(d, 10)
	if low.Source != SourceClamped || low.Value != 90 {
		t.Fatalf("got %+v, want clamp to 90", low)
	}
	high := ValueAt(d, 40)
	if high.Source != SourceClamped || high.Value != 78 {
		t.Fatalf("got %+v, want clamp to 78", high)
	}
}

func TestValueAt_Monotone(t *testing.T) {
	// VMAF curves are non-increasing in CRF; predictions must be too.
	d := curve([2]float64{18, 96}, [2]float64{22, 92.5}, [2]float64{26, 87}, [2]float64{30, 79})

	prev := ValueAt(d, 16).Value
	for x := 16.5; x <= 32; x += 0.5 {
		cur := ValueAt(d, x).Value
		if cur > prev {
			t.Fatalf("y(%v)=%v > y(%v)=%v; interpolation broke monotonicity", x, cur, x-0.5, prev)
		}
		prev = cur
	}
}

func TestValueAt_TooFewPoints(t *testing.T) {
	d := benchdata.Dataset{Points: [][2]float64{{20, 90}}}
	if v := ValueAt(d, 20); v.Valid {
		t.Fatalf("got %+v, want invalid for single-point curve", v)
	}
}
