package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Aryan-Gandhi/PromptGenerator/internal/domain"
)

// RedisKeyPrefix namespaces transform records in a shared Redis.
const RedisKeyPrefix = "promptgear:transform:"

// Redis is a Store backed by a Redis server. Records are JSON values written
// with SET … EX ttl, so expiry is enforced by Redis itself and visible to all
// instances sharing the server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// OpenRedis parses url, connects and verifies the server with PING.
func OpenRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, ttl), nil
}

// Get reads the record for key. redis.Nil is a miss.
func (r *Redis) Get(ctx context.Context, key string) (*domain.CachedTransform, bool, error) {
	raw, err := r.client.Get(ctx, RedisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var rec domain.CachedTransform
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("decode cached transform: %w", err)
	}
	return &rec, true, nil
}

// Put writes rec under key with the store TTL.
func (r *Redis) Put(ctx context.Context, key string, rec domain.CachedTransform) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode cached transform: %w", err)
	}
	if err := r.client.Set(ctx, RedisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error { return r.client.Close() }
