// Package benchdata defines the benchmark snapshot document along with the
// parser and merger that produce it from third-party benchmark pages.
//
// A snapshot is the unit the rest of the engine works with: a set of
// normalized benchmark curves (datasets) plus provenance metadata. Snapshots
// are immutable values; every fetch/build produces a new document and the
// previous one stays valid for readers that still hold it.
package benchdata

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Well-known metric names carried by benchmark curves.
const (
	MetricVMAF    = "vmaf"
	MetricSSIM    = "ssim"
	MetricFPS     = "fps"
	MetricBitrate = "bitrate"
)

// SourceInfo records where a snapshot's data came from and when.
type SourceInfo struct {
	HomepageURL string `json:"homepageUrl"`
	DataURL     string `json:"dataUrl"`
	Title       string `json:"title,omitempty"`
	FetchedAt   string `json:"fetchedAtIso"`
}

// Dataset is one benchmark curve: ordered (x, y) samples for a fixed
// capture set, metric, and encoder/profile key. X is the encoder's quality
// parameter (CRF/CQ/QP), Y the metric value at that quality.
//
// Points are sorted ascending by x with no duplicate x values; the parser
// guarantees this for everything it emits.
type Dataset struct {
	Set    int          `json:"set"`
	Metric string       `json:"metric"`
	Key    string       `json:"key"`
	Label  string       `json:"label,omitempty"`
	Points [][2]float64 `json:"points"`
}

// DatasetID is the composite identity of a dataset within one snapshot.
type DatasetID struct {
	Set    int
	Metric string
	Key    string
}

func (id DatasetID) String() string {
	return fmt.Sprintf("%d/%s/%s", id.Set, id.Metric, id.Key)
}

// ID returns the dataset's identity within a snapshot.
func (d Dataset) ID() DatasetID {
	return DatasetID{Set: d.Set, Metric: d.Metric, Key: d.Key}
}

// MinX and MaxX return the curve's quality-axis domain.
// Valid only for datasets with at least one point.
func (d Dataset) MinX() float64 { return d.Points[0][0] }
func (d Dataset) MaxX() float64 { return d.Points[len(d.Points)-1][0] }

// Snapshot is the full collection of datasets plus provenance, treated as
// one immutable versioned artifact.
type Snapshot struct {
	Source   SourceInfo `json:"source"`
	Datasets []Dataset  `json:"datasets"`
}

// sortDatasets orders datasets by (set, metric, key). This is the canonical
// document order; it carries no meaning beyond making builds reproducible.
func sortDatasets(ds []Dataset) {
	sort.Slice(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Set != b.Set {
			return a.Set < b.Set
		}
		if a.Metric != b.Metric {
			return a.Metric < b.Metric
		}
		return a.Key < b.Key
	})
}

// MarshalCanonical serializes the snapshot in canonical form: datasets
// sorted by (set, metric, key), fixed field order. Two snapshots built from
// identical batches in identical order marshal to identical bytes, and a
// loaded snapshot re-marshals to exactly the bytes it was loaded from.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	c := Snapshot{Source: s.Source, Datasets: make([]Dataset, len(s.Datasets))}
	copy(c.Datasets, s.Datasets)
	sortDatasets(c.Datasets)

	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Load decodes a snapshot document previously produced by MarshalCanonical.
func Load(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}
