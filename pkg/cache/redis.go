package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "updlflow:"

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisPool stores entries in Redis so they are shared between processes.
type RedisPool struct {
	client redisClient
}

// NewRedisPool connects to the Redis server at rawURL.
func NewRedisPool(ctx context.Context, rawURL string) (*RedisPool, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPool{client: client}, nil
}

func newRedisPoolWithClient(client redisClient) *RedisPool {
	return &RedisPool{client: client}
}

func (p *RedisPool) key(key string) string {
	return keyPrefix + key
}

func (p *RedisPool) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := p.client.Get(ctx, p.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}

		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	return value, nil
}

func (p *RedisPool) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := p.client.Set(ctx, p.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}

	return nil
}

func (p *RedisPool) Delete(ctx context.Context, key string) error {
	if err := p.client.Del(ctx, p.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

func (p *RedisPool) Close() error {
	return p.client.Close()
}
