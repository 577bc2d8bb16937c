package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLock implements DistributedLock over Redis SETNX with a short TTL, so
// two worker replicas racing on the same cache key collapse to one writer
// even when they share a mounted cache directory but not a process.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLock{client: client, ttl: ttl}
}

func (l *RedisLock) TryAcquire(key string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.client.SetNX(ctx, "kreuzberg:cachelock:"+key, "1", l.ttl).Result()
}

func (l *RedisLock) Release(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.client.Del(ctx, "kreuzberg:cachelock:"+key).Err()
}
