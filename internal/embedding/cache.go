package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache stores vectors by content key. Entries are never overwritten or
// evicted, so a key always maps to the first vector stored for it.
type Cache interface {
	Get(ctx context.Context, key string) ([]float64, bool)
	Put(ctx context.Context, key string, vec []float64)
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float64
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]float64)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *MemoryCache) Put(_ context.Context, key string, vec []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		m.entries[key] = vec
	}
}

func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// RedisCache shares vectors across instances. Redis failures are treated as
// misses.
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

func NewRedisCache(client redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]float64, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Embedding cache read failed")
		}
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Embedding cache entry is corrupt")
		return nil, false
	}
	return vec, true
}

func (r *RedisCache) Put(ctx context.Context, key string, vec []float64) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := r.client.SetNX(ctx, r.prefix+key, raw, 0).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Embedding cache write failed")
	}
}

// TieredCache reads through a fast local tier to a shared one and promotes
// shared hits locally.
type TieredCache struct {
	local  Cache
	shared Cache
}

func NewTieredCache(local, shared Cache) *TieredCache {
	return &TieredCache{local: local, shared: shared}
}

func (t *TieredCache) Get(ctx context.Context, key string) ([]float64, bool) {
	if v, ok := t.local.Get(ctx, key); ok {
		return v, true
	}
	v, ok := t.shared.Get(ctx, key)
	if ok {
		t.local.Put(ctx, key, v)
	}
	return v, ok
}

func (t *TieredCache) Put(ctx context.Context, key string, vec []float64) {
	t.local.Put(ctx, key, vec)
	t.shared.Put(ctx, key, vec)
}
