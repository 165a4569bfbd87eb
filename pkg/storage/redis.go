package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ffui/benchcast/pkg/benchdata"
)

// RedisStore implements Store on Redis, for deployments where several
// service instances share one snapshot (or where snapshots must survive a
// restart without refetching the benchmark source).
//
// Values are the snapshot's canonical JSON, so what Redis holds is exactly
// the externally-contracted document format.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.Mutex
}

// NewRedisStore connects to Redis and verifies the connection.
// ttl == 0 defaults to 24 hours; benchmark data moves slowly.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if db < 0 {
		return nil, errors.New("redis database number must be >= 0")
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(source string) string {
	return "benchcast:snapshot:" + source
}

// Put stores the snapshot's canonical JSON under the source's key.
func (r *RedisStore) Put(ctx context.Context, source string, snap benchdata.Snapshot) error {
	if !validSourceName(source) {
		return fmt.Errorf("invalid source name %q", source)
	}

	data, err := snap.MarshalCanonical()
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisKey(source), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store snapshot in redis: %w", err)
	}
	return nil
}

// GetLatest loads and decodes the stored snapshot for a source.
func (r *RedisStore) GetLatest(ctx context.Context, source string) (benchdata.Snapshot, bool, error) {
	if source == "" {
		return benchdata.Snapshot{}, false, errors.New("source name required")
	}

	data, err := r.client.Get(ctx, redisKey(source)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return benchdata.Snapshot{}, false, nil
		}
		return benchdata.Snapshot{}, false, fmt.Errorf("get snapshot from redis: %w", err)
	}

	snap, err := benchdata.Load(data)
	if err != nil {
		return benchdata.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Close closes the Redis connection. Idempotent.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	if err != nil && err.Error() == "redis: client is closed" {
		return nil
	}
	return err
}

// Ping checks the Redis connection health.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
