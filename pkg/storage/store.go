// Package storage provides benchmark snapshot storage implementations.
//
// A store holds the latest snapshot document per named source. The engine
// never mutates a stored snapshot; a refresh that fails upstream simply
// leaves the previous document in place for readers.
package storage

import (
	"context"

	"github.com/ffui/benchcast/pkg/benchdata"
)

// Store is the persistence boundary for snapshot documents.
type Store interface {
	// Put stores the snapshot for a source, replacing any previous one.
	Put(ctx context.Context, source string, snap benchdata.Snapshot) error
	// GetLatest retrieves the current snapshot for a source. found is
	// false when no snapshot has been stored (or it expired); that is not
	// an error.
	GetLatest(ctx context.Context, source string) (benchdata.Snapshot, bool, error)
}

// validSourceName reports whether a source name is safe to use as a
// storage key: alphanumeric plus dash and underscore.
func validSourceName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '_') {
			return false
		}
	}
	return true
}
