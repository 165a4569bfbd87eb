package benchdata

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoData reports that the raw source text contained no recognizable
// benchmark data at all. Individual malformed blocks or series never cause
// this; they are dropped with the remainder still parsed.
var ErrNoData = errors.New("no recognizable benchmark data")

// pushMarker introduces one capture-set block in the benchmark page. The
// page is a script that appends objects of the form
//
//	benchData.push({
//	    "set": 1,
//	    "label": "RTX 4060",
//	    "metric": "vmaf",
//	    "series": {
//	        "libx264": [[18, 96.8], [20, 95.1], ...],
//	        "hevc_nvenc": [[20, 94.0], ...],
//	    },
//	});
//
// One block holds one metric for one capture set; each series entry becomes
// one Dataset. The format is owned by the third party and drifts, so the
// parser is deliberately defensive: comments, trailing commas, stray
// whitespace, and broken individual blocks are all tolerated.
const pushMarker = "benchData.push("

// Parse extracts datasets from raw benchmark page text.
//
// It fails with ErrNoData only when no push marker occurs anywhere in the
// text. Blocks that fail to parse, series that are not arrays, and samples
// that are not finite numbers are skipped silently; a series left with
// fewer than two points is dropped since interpolation needs at least two.
func Parse(text string) ([]Dataset, error) {
	var datasets []Dataset
	found := false

	for off := 0; ; {
		i := strings.Index(text[off:], pushMarker)
		if i < 0 {
			break
		}
		found = true
		start := off + i + len(pushMarker)

		block, end := extractObject(text[start:])
		if block == "" {
			// Truncated or unbalanced block; resume after the marker.
			off = start
			continue
		}
		off = start + end

		datasets = append(datasets, parseBlock(block)...)
	}

	if !found {
		return nil, fmt.Errorf("parse benchmark source: %w", ErrNoData)
	}
	return datasets, nil
}

// parseBlock converts one sanitized push block into datasets, one per
// series key. Returns nil for blocks missing required fields.
func parseBlock(block string) []Dataset {
	doc := gjson.Parse(sanitize(block))

	metric := doc.Get("metric").String()
	series := doc.Get("series")
	if metric == "" || !series.IsObject() {
		return nil
	}

	set := int(doc.Get("set").Int())
	label := strings.TrimSpace(doc.Get("label").String())

	var out []Dataset
	series.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "" || !value.IsArray() {
			return true
		}
		points := parsePoints(value)
		if len(points) < 2 {
			return true
		}
		out = append(out, Dataset{
			Set:    set,
			Metric: metric,
			Key:    key.String(),
			Label:  label,
			Points: points,
		})
		return true
	})
	return out
}

// parsePoints coerces a series array into clean samples: non-finite or
// non-numeric pairs dropped, sorted ascending by x, duplicate x collapsed
// keeping the last occurrence in source order.
func parsePoints(series gjson.Result) [][2]float64 {
	raw := series.Array()
	points := make([][2]float64, 0, len(raw))

	for _, pair := range raw {
		elems := pair.Array()
		if len(elems) != 2 {
			continue
		}
		x, okX := asFinite(elems[0])
		y, okY := asFinite(elems[1])
		if !okX || !okY {
			continue
		}
		points = append(points, [2]float64{x, y})
	}

	// Stable sort keeps source order within equal x, so "last wins" is a
	// matter of keeping the final element of each run.
	sort.SliceStable(points, func(i, j int) bool {
		return points[i][0] < points[j][0]
	})

	dedup := points[:0]
	for i, p := range points {
		if i+1 < len(points) && points[i+1][0] == p[0] {
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}

// asFinite extracts a finite float from a JSON value. Numbers are taken as
// is; numeric strings are accepted because the source intermittently quotes
// values. Everything else is rejected.
func asFinite(v gjson.Result) (float64, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// extractObject returns the balanced {...} literal at the start of s
// (ignoring leading whitespace) and the offset just past it. Returns ""
// when s does not start with an object or the braces never balance.
func extractObject(s string) (string, int) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	if i >= len(s) || s[i] != '{' {
		return "", 0
	}

	depth := 0
	inString := false
	for j := i; j < len(s); j++ {
		c := s[j]
		if inString {
			switch c {
			case '\\':
				j++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[i : j+1], j + 1
			}
		}
	}
	return "", 0
}

// sanitize strips // and /* */ comments plus trailing commas so the block
// can be handed to the JSON parser. String literals are left untouched.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			i += 2
			for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
				i++
			}
			i++ // skip the trailing '/'
		default:
			b.WriteByte(c)
		}
	}

	return stripTrailingCommas(b.String())
}

// stripTrailingCommas removes commas that directly precede a closing
// bracket or brace, which the source emits freely.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
