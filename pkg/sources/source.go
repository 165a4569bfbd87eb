// Package sources provides connectors that retrieve raw benchmark page
// text from external locations and hand it to the parser unmodified.
//
// Each source implements the Source interface and can be plugged into the
// snapshot refresh loop or the offline builder. Available sources:
//   - HTTPSource — fetches a benchmark page over HTTP(S)
//   - FileSource — reads a page dump from local disk (offline builds, tests)
//
// Sources are intentionally thin: they fetch bytes and record provenance,
// leaving all parsing and normalization to pkg/benchdata. This is the only
// part of the pipeline that does I/O; everything downstream is pure.
package sources

import (
	"context"
	"fmt"
	"time"
)

// Page is one raw fetch result: the page text plus where and when it was
// obtained. FetchedAt feeds the snapshot's provenance metadata.
type Page struct {
	URL       string
	Body      string
	FetchedAt time.Time
}

// Source is the interface all benchmark page sources implement.
//
// Fetch is synchronous and must respect context cancellation and
// deadlines. It returns the page text as-is; transient upstream noise is
// the parser's problem, unreachable upstreams are Fetch errors.
type Source interface {
	Fetch(ctx context.Context) (Page, error)
	Name() string
}

// New creates a source from a kind and a generic configuration map. This
// is the extension point for adding new source types.
//
// Supported kinds:
//   - "http": HTTPSource ("url" required, optional "userAgent", "timeout")
//   - "file": FileSource ("path" required)
func New(kind string, config map[string]string) (Source, error) {
	switch kind {
	case "http":
		url := config["url"]
		if url == "" {
			return nil, fmt.Errorf("http source requires 'url' config")
		}
		src := &HTTPSource{URL: url, UserAgent: config["userAgent"]}
		if raw := config["timeout"]; raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid http source timeout %q: %w", raw, err)
			}
			src.Timeout = d
		}
		return src, nil
	case "file":
		path := config["path"]
		if path == "" {
			return nil, fmt.Errorf("file source requires 'path' config")
		}
		return &FileSource{Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown source kind: %s (must be http or file)", kind)
	}
}
