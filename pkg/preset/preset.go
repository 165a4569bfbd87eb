// Package preset defines the encoding preset document consumed by the
// prediction and calibration engines. The JSON shape mirrors the preset
// files the desktop app persists, so documents round-trip unchanged; the
// engine only ever reads the video settings and the accumulated stats.
package preset

// Rate-control modes a preset's video settings may use. Only quality-driven
// modes (crf, cq, qp) carry the quality axis benchmark curves are plotted
// against; cbr/vbr presets have no quality value to predict at.
const (
	RateControlCRF = "crf"
	RateControlCQ  = "cq"
	RateControlQP  = "qp"
	RateControlCBR = "cbr"
	RateControlVBR = "vbr"
)

// Video holds the video-encoder settings the engine reads. Fields the
// app stores but the engine never consults (tune, profile, pixel format,
// ...) are intentionally not modeled here.
type Video struct {
	Encoder      string  `json:"encoder"`
	RateControl  string  `json:"rateControl"`
	QualityValue float64 `json:"qualityValue"`
	BitrateKbps  int     `json:"bitrateKbps,omitempty"`
}

// Stats are the running usage totals the job queue appends to after every
// completed transcode with this preset. All fields are cumulative.
type Stats struct {
	UsageCount        int64   `json:"usageCount"`
	TotalInputSizeMB  float64 `json:"totalInputSizeMB"`
	TotalOutputSizeMB float64 `json:"totalOutputSizeMB"`
	TotalTimeSeconds  float64 `json:"totalTimeSeconds"`
	TotalFrames       int64   `json:"totalFrames,omitempty"`
	VMAFCount         int64   `json:"vmafCount,omitempty"`
	VMAFSum           float64 `json:"vmafSum,omitempty"`
}

// Throughput returns the preset's observed processing speed in MB/s.
// Undefined (ok=false) until the preset has processed any input; a preset
// with zero recorded time or zero input is "no data", not "zero speed".
func (s Stats) Throughput() (float64, bool) {
	if s.TotalTimeSeconds <= 0 || s.TotalInputSizeMB <= 0 {
		return 0, false
	}
	return s.TotalInputSizeMB / s.TotalTimeSeconds, true
}

// SizeRatio returns output/input size; lower means more compression.
// Undefined until the preset has processed any input.
func (s Stats) SizeRatio() (float64, bool) {
	if s.TotalInputSizeMB <= 0 {
		return 0, false
	}
	return s.TotalOutputSizeMB / s.TotalInputSizeMB, true
}

// AvgVMAF returns the mean measured VMAF across jobs that ran a measure
// pass. Undefined when no job measured VMAF.
func (s Stats) AvgVMAF() (float64, bool) {
	if s.VMAFCount <= 0 {
		return 0, false
	}
	return s.VMAFSum / float64(s.VMAFCount), true
}

// FPS returns the observed average encode speed in frames per second.
// Undefined when frame counts were not recorded.
func (s Stats) FPS() (float64, bool) {
	if s.TotalFrames <= 0 || s.TotalTimeSeconds <= 0 {
		return 0, false
	}
	return float64(s.TotalFrames) / s.TotalTimeSeconds, true
}

// Preset is one encoding preset with its accumulated usage stats.
type Preset struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Video Video  `json:"video"`
	Stats Stats  `json:"stats"`
}

// QualityDriven reports whether the preset's rate control carries a usable
// quality axis for curve lookup.
func (p Preset) QualityDriven() bool {
	switch p.Video.RateControl {
	case RateControlCRF, RateControlCQ, RateControlQP:
		return true
	}
	return false
}
