// Package cache is a small TTL byte cache for stats and calendar snapshots.
// It keeps repeated scoring calls from hammering the external sheet between
// refreshes.
package cache

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, val []byte, ttl time.Duration)
	// Delete drops a key, used to evict snapshots that failed to decode.
	Delete(key string)
}

type memoryItem struct {
	val       []byte
	expiresAt int64 // unix nanos, 0 = no expiry
}

type memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

func NewMemory() Cache { return &memory{items: make(map[string]memoryItem)} }

func (c *memory) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || (it.expiresAt != 0 && time.Now().UnixNano() > it.expiresAt) {
		return nil, false
	}
	return it.val, true
}

func (c *memory) Set(key string, val []byte, ttl time.Duration) {
	it := memoryItem{val: append([]byte(nil), val...)}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl).UnixNano()
	}
	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
}

func (c *memory) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Redis adapter, used when a shared cache across processes is wanted.
type redisCache struct {
	r       *redis.Client
	timeout time.Duration
}

func NewRedis(client *redis.Client) Cache {
	return &redisCache{r: client, timeout: 500 * time.Millisecond}
}

func (r *redisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	v, err := r.r.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return v, true
}

func (r *redisCache) Set(key string, val []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_ = r.r.Set(ctx, key, val, ttl).Err()
}

func (r *redisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_ = r.r.Del(ctx, key).Err()
}
