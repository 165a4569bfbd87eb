package sources

import (
	"context"
	"fmt"
	"os"
	"time"
)

// FileSource reads a benchmark page dump from local disk. Used by the
// offline snapshot builder and in tests, where a saved copy of the page
// stands in for the live site.
type FileSource struct {
	Path string
}

func (f *FileSource) Name() string { return "file" }

// Fetch reads the file. FetchedAt is the file's modification time, so an
// offline build timestamps the snapshot with when the page was saved, not
// when the build ran.
func (f *FileSource) Fetch(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	info, err := os.Stat(f.Path)
	if err != nil {
		return Page{}, fmt.Errorf("stat %s: %w", f.Path, err)
	}

	body, err := os.ReadFile(f.Path)
	if err != nil {
		return Page{}, fmt.Errorf("read %s: %w", f.Path, err)
	}

	fetchedAt := info.ModTime().UTC()
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	return Page{
		URL:       "file://" + f.Path,
		Body:      string(body),
		FetchedAt: fetchedAt,
	}, nil
}
