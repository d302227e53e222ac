package calendar

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// MemoryState keeps the refresh date in process, for tests and single runs.
type MemoryState struct {
	mu   sync.Mutex
	date string
}

func NewMemoryState() *MemoryState { return &MemoryState{} }

func (s *MemoryState) LastRefreshDate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date, nil
}

func (s *MemoryState) SetLastRefreshDate(ctx context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = date
	return nil
}

// RedisState shares the refresh date across processes. The key carries no TTL;
// it is overwritten on every refresh.
type RedisState struct {
	r   *redis.Client
	key string
}

func NewRedisState(client *redis.Client, key string) *RedisState {
	if key == "" {
		key = "signaldesk:calendar:last_refresh"
	}
	return &RedisState{r: client, key: key}
}

func (s *RedisState) LastRefreshDate(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	v, err := s.r.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *RedisState) SetLastRefreshDate(ctx context.Context, date string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return s.r.Set(ctx, s.key, date, 0).Err()
}
