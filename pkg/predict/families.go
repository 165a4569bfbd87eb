// Package predict maps a preset's encoder settings onto benchmark curves
// and reads metric values off them. Everything here is a pure, synchronous
// computation over an immutable snapshot; callers may invoke it on every
// editor keystroke and cache results however they like.
package predict

// FamilyTable maps an ffmpeg encoder name to its candidate dataset keys,
// ordered most specific first. Benchmark pages rarely cover every encoder
// under its exact name, so each encoder lists family-level fallbacks (e.g.
// hevc_nvenc falls back to the vendor-family key "nvenc-hevc").
//
// The table is read-only after construction. Build it once at startup and
// hand it to NewEngine.
type FamilyTable struct {
	byEncoder map[string][]string
}

// NewFamilyTable builds a lookup table from encoder name to candidate keys.
// The slices are copied; later mutation of the input map is harmless.
func NewFamilyTable(families map[string][]string) *FamilyTable {
	byEncoder := make(map[string][]string, len(families))
	for encoder, keys := range families {
		c := make([]string, len(keys))
		copy(c, keys)
		byEncoder[encoder] = c
	}
	return &FamilyTable{byEncoder: byEncoder}
}

// Candidates returns the ordered candidate dataset keys for an encoder,
// or nil for an encoder the table does not know.
func (t *FamilyTable) Candidates(encoder string) []string {
	return t.byEncoder[encoder]
}

// DefaultFamilies returns the table covering the encoders the app ships
// presets for. Software encoders usually appear under their exact name;
// hardware encoders fall back to a vendor-family key because benchmark
// sites label them inconsistently across generations.
func DefaultFamilies() *FamilyTable {
	return NewFamilyTable(map[string][]string{
		"libx264":    {"libx264", "x264"},
		"libx265":    {"libx265", "x265"},
		"libsvtav1":  {"libsvtav1", "svt-av1"},
		"libaom-av1": {"libaom-av1", "aom-av1"},
		"libvpx-vp9": {"libvpx-vp9", "vp9"},

		"h264_nvenc": {"h264_nvenc", "nvenc-h264"},
		"hevc_nvenc": {"hevc_nvenc", "nvenc-hevc"},
		"av1_nvenc":  {"av1_nvenc", "nvenc-av1"},

		"h264_qsv": {"h264_qsv", "qsv-h264"},
		"hevc_qsv": {"hevc_qsv", "qsv-hevc"},
		"av1_qsv":  {"av1_qsv", "qsv-av1"},

		"h264_amf": {"h264_amf", "amf-h264"},
		"hevc_amf": {"hevc_amf", "amf-hevc"},

		"h264_videotoolbox": {"h264_videotoolbox", "videotoolbox-h264"},
		"hevc_videotoolbox": {"hevc_videotoolbox", "videotoolbox-hevc"},
	})
}
