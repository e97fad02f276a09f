// Package cache holds the read-through caches used for assembled journals and
// batched profile lookups. Values are stored JSON-encoded, so a cached value
// never shares memory with the caller that stored or loaded it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Cache is a key/value cache with a fixed TTL chosen at construction.
type Cache interface {
	// Get decodes the value stored under key into dst and reports whether
	// the key was present.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

// Redis stores entries in Redis with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Local is an in-process LRU whose entries expire after the TTL.
type Local struct {
	lru *expirable.LRU[string, []byte]
}

func NewLocal(size int, ttl time.Duration) *Local {
	return &Local{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (l *Local) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, ok := l.lru.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (l *Local) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	l.lru.Add(key, data)
	return nil
}

func (l *Local) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		l.lru.Remove(k)
	}
	return nil
}
