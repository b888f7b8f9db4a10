// Package cache stores encoded upstream responses for a short time so bursts
// of identical tool calls hit the exchange once.
package cache

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

// Store is a byte-oriented TTL cache.
type Store interface {
	// Get returns the value and true on a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const defaultMemoryLimit = 10000

// MemoryStore is a process-local Store backed by go-zero's collection.Cache.
type MemoryStore struct {
	cache *collection.Cache
}

// NewMemoryStore builds an in-process store holding at most limit entries.
func NewMemoryStore(name string, defaultTTL time.Duration, limit int) (*MemoryStore, error) {
	if defaultTTL <= 0 {
		defaultTTL = 3 * time.Second
	}
	if limit <= 0 {
		limit = defaultMemoryLimit
	}
	c, err := collection.NewCache(defaultTTL, collection.WithName(name), collection.WithLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("cache: new memory store: %w", err)
	}
	return &MemoryStore{cache: c}, nil
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	e, ok := v.(memoryEntry)
	if !ok || !time.Now().Before(e.expiresAt) {
		s.cache.Del(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value until ttl elapses. Expiry is checked on read; the
// underlying cache only sweeps the entry some time afterwards.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.cache.SetWithExpire(key, memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}, sweepAfter(ttl))
	return nil
}

// sweepAfter is never shorter than ttl once collection.Cache applies its
// expiry jitter and one-second wheel granularity.
func sweepAfter(ttl time.Duration) time.Duration {
	return 2*ttl + 3*time.Second
}

// RedisStore shares cached responses between server processes.
type RedisStore struct {
	rds *redis.Redis
}

// NewRedisStore wraps an existing go-zero Redis client.
func NewRedisStore(rds *redis.Redis) *RedisStore {
	return &RedisStore{rds: rds}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.rds.GetCtx(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get %s: %w", key, err)
	}
	if v == "" {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set stores value with ttl rounded up to whole seconds.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	seconds := int(math.Ceil(ttl.Seconds()))
	if err := s.rds.SetexCtx(ctx, key, string(value), seconds); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}
	return nil
}

// Backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// NewStore picks a Store implementation by backend name. rds is only
// consulted for the redis backend.
func NewStore(backend string, rds *redis.Redis, defaultTTL time.Duration) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		return NewMemoryStore(Namespace, defaultTTL, defaultMemoryLimit)
	case BackendRedis:
		if rds == nil {
			return nil, fmt.Errorf("cache: redis backend selected but redis is not configured")
		}
		return NewRedisStore(rds), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", backend)
	}
}
