// Package cache stores JSON-encoded values with a TTL. Redis backs it in
// production; a process-local map stands in when REDIS_ADDR is empty.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shashiranjanraj/stockroom/config"
)

// Store is the cache contract services depend on.
type Store interface {
	// Get unmarshals the value under key into dest. Returns false on miss or error.
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Forget(ctx context.Context, keys ...string) error
}

// Dial opens the configured Redis client, or returns nil when REDIS_ADDR is
// empty. The client is shared by the cache and the job queue.
func Dial(ctx context.Context) (*redis.Client, error) {
	addr := config.RedisAddr()
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.RedisPassword(),
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

// Remember returns the cached value under key, or calls fn, caches its
// result for ttl and returns it.
func Remember[T any](ctx context.Context, s Store, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var cached T
	if s != nil && s.Get(ctx, key, &cached) {
		return cached, nil
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	if s != nil {
		_ = s.Set(ctx, key, v, ttl)
	}
	return v, nil
}

// ------------------- Redis -------------------

// Redis is a Store over a go-redis client.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, data, ttl).Err()
}

func (r *Redis) Forget(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// ------------------- Memory -------------------

type entry struct {
	data    []byte
	expires time.Time
}

// Memory is a process-local Store.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, dest interface{}) bool {
	m.mu.Lock()
	e, ok := m.items[key]
	if ok && !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(e.data, dest) == nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := entry{data: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Forget(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}
