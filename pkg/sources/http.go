package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultUserAgent    = "benchcast/1.0"

	// Benchmark pages are a few hundred KB of inline script. Anything
	// past this is not the page we asked for.
	maxPageBytes = 8 << 20
)

// HTTPSource fetches a benchmark page over HTTP(S). The body is returned
// verbatim; pkg/benchdata does the extraction.
type HTTPSource struct {
	URL       string
	UserAgent string
	Headers   map[string]string
	Timeout   time.Duration

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

func (h *HTTPSource) Name() string { return "http" }

// Fetch performs a GET against the configured URL and returns the page
// text. Non-2xx statuses are errors: a benchmark page behind an error
// status is not trustworthy input.
func (h *HTTPSource) Fetch(ctx context.Context) (Page, error) {
	client := h.Client
	if client == nil {
		timeout := h.Timeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build request for %s: %w", h.URL, err)
	}

	ua := h.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/javascript,*/*")
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", h.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, fmt.Errorf("fetch %s: unexpected status %d", h.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes+1))
	if err != nil {
		return Page{}, fmt.Errorf("read body of %s: %w", h.URL, err)
	}
	if len(body) > maxPageBytes {
		return Page{}, fmt.Errorf("fetch %s: body exceeds %d bytes", h.URL, maxPageBytes)
	}

	return Page{
		URL:       h.URL,
		Body:      string(body),
		FetchedAt: time.Now().UTC(),
	}, nil
}
