package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ffui/benchcast/pkg/benchdata"
)

// MemoryStore keeps the latest snapshot per source in process memory.
// It is safe for concurrent use by multiple goroutines.
//
// With a TTL configured, a background goroutine drops snapshots that have
// not been refreshed within the TTL, so a dead refresh loop cannot serve
// arbitrarily stale predictions forever. Single-instance deployments are
// fine on MemoryStore; use RedisStore when multiple instances must share
// one snapshot.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]memoryEntry

	ttl         time.Duration
	ticker      *time.Ticker
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once
}

type memoryEntry struct {
	snap     benchdata.Snapshot
	storedAt time.Time
}

// NewMemoryStore creates an in-memory snapshot store with no TTL.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]memoryEntry)}
}

// NewMemoryStoreWithTTL creates an in-memory store whose entries expire
// ttl after their last Put. Stop must be called to release the cleanup
// goroutine. cleanupInterval <= 0 defaults to one minute.
func NewMemoryStoreWithTTL(ttl, cleanupInterval time.Duration) *MemoryStore {
	if ttl <= 0 {
		panic("storage: TTL must be positive")
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	s := &MemoryStore{
		snapshots:   make(map[string]memoryEntry),
		ttl:         ttl,
		ticker:      time.NewTicker(cleanupInterval),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	go s.runCleanup()
	return s
}

// Stop shuts down the cleanup goroutine. Safe to call multiple times and
// on stores without TTL.
func (s *MemoryStore) Stop() {
	if s.ticker == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCleanup)
		<-s.cleanupDone
		s.ticker.Stop()
	})
}

func (s *MemoryStore) runCleanup() {
	defer close(s.cleanupDone)
	for {
		select {
		case <-s.ticker.C:
			s.expire()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for name, e := range s.snapshots {
		if now.Sub(e.storedAt) > s.ttl {
			delete(s.snapshots, name)
		}
	}
}

// Put stores a snapshot for a source, replacing any existing one.
func (s *MemoryStore) Put(ctx context.Context, source string, snap benchdata.Snapshot) error {
	if !validSourceName(source) {
		return fmt.Errorf("invalid source name %q", source)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[source] = memoryEntry{snap: snap, storedAt: time.Now()}
	return nil
}

// GetLatest returns the current snapshot for a source.
func (s *MemoryStore) GetLatest(ctx context.Context, source string) (benchdata.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return benchdata.Snapshot{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	e, found := s.snapshots[source]
	return e.snap, found, nil
}

// Len returns the number of stored snapshots. Useful for tests and metrics.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
