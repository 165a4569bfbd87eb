// Package metrics provides Prometheus instrumentation for the predictor.
//
// It tracks the refresh pipeline (fetch and parse durations, snapshot age
// and size) and the serving side (prediction and calibration counts,
// errors by component and reason). All metrics are exposed via the
// /metrics HTTP endpoint for Prometheus scraping.
//
// Metrics exposed:
//   - benchcast_fetch_seconds: Histogram of benchmark page fetch duration
//   - benchcast_parse_seconds: Histogram of page parse duration
//   - benchcast_snapshot_age_seconds: Gauge of current snapshot age
//   - benchcast_snapshot_datasets: Gauge of dataset count in the snapshot
//   - benchcast_predictions_total: Counter of predictions by outcome
//   - benchcast_calibrations_total: Counter of radar calibration requests
//   - benchcast_errors_total: Counter of errors by component and reason
//
// All metrics carry the source label, for deployments refreshing more
// than one benchmark source.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the predictor.
type Metrics struct {
	FetchSeconds       prometheus.Histogram
	ParseSeconds       prometheus.Histogram
	SnapshotAgeSeconds prometheus.Gauge
	SnapshotDatasets   prometheus.Gauge
	PredictionsTotal   *prometheus.CounterVec
	CalibrationsTotal  prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New(source string) *Metrics {
	return &Metrics{
		FetchSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "benchcast_fetch_seconds",
			Help:        "Time spent fetching a benchmark page",
			ConstLabels: prometheus.Labels{"source": source},
			Buckets:     prometheus.DefBuckets,
		}),

		ParseSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "benchcast_parse_seconds",
			Help:        "Time spent extracting datasets from a fetched page",
			ConstLabels: prometheus.Labels{"source": source},
			Buckets:     prometheus.DefBuckets,
		}),

		SnapshotAgeSeconds: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "benchcast_snapshot_age_seconds",
			Help:        "Age of the current snapshot in seconds",
			ConstLabels: prometheus.Labels{"source": source},
		}),

		SnapshotDatasets: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "benchcast_snapshot_datasets",
			Help:        "Number of datasets in the current snapshot",
			ConstLabels: prometheus.Labels{"source": source},
		}),

		PredictionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "benchcast_predictions_total",
			Help:        "Total prediction requests by outcome",
			ConstLabels: prometheus.Labels{"source": source},
		}, []string{"outcome"}),

		CalibrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "benchcast_calibrations_total",
			Help:        "Total radar calibration requests",
			ConstLabels: prometheus.Labels{"source": source},
		}),

		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "benchcast_errors_total",
			Help:        "Total number of errors by component and reason",
			ConstLabels: prometheus.Labels{"source": source},
		}, []string{"component", "reason"}),
	}
}

// RecordFetch records the time spent fetching one page.
func (m *Metrics) RecordFetch(seconds float64) {
	m.FetchSeconds.Observe(seconds)
}

// RecordParse records the time spent parsing one page.
func (m *Metrics) RecordParse(seconds float64) {
	m.ParseSeconds.Observe(seconds)
}

// SetSnapshotAge sets the current snapshot age.
func (m *Metrics) SetSnapshotAge(seconds float64) {
	m.SnapshotAgeSeconds.Set(seconds)
}

// SetSnapshotDatasets sets the dataset count of the current snapshot.
func (m *Metrics) SetSnapshotDatasets(n int) {
	m.SnapshotDatasets.Set(float64(n))
}

// RecordPrediction increments the prediction counter for an outcome
// ("ok", "no_dataset", "bitrate_mode").
func (m *Metrics) RecordPrediction(outcome string) {
	m.PredictionsTotal.WithLabelValues(outcome).Inc()
}

// RecordCalibration increments the calibration counter.
func (m *Metrics) RecordCalibration() {
	m.CalibrationsTotal.Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
