package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Backend implementation over Redis, for deployments where
// cache state should survive restarts and be shared between instances.
type RedisCache struct {
	client *redis.Client
	config *Config
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(addr, password string, db int, config *Config) (*RedisCache, error) {
	if config == nil {
		config = DefaultConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisCache{
		client: client,
		config: config,
		prefix: "praxis:cache:",
	}, nil
}

var _ Backend = (*RedisCache)(nil)

// Get retrieves a cached value. Expiry is handled by Redis TTLs.
func (r *RedisCache) Get(ctx context.Context, key string) (*Entry, bool) {
	if !r.config.Enabled {
		return nil, false
	}

	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.client.Del(ctx, r.prefix+key)
		return nil, false
	}
	return &entry, true
}

// Set stores a value with the given TTL (DefaultTTL when zero)
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !r.config.Enabled {
		return nil
	}
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}

	now := time.Now()
	entry := &Entry{
		Key:       key,
		Value:     value,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// Delete removes an entry
func (r *RedisCache) Delete(ctx context.Context, key string) {
	r.client.Del(ctx, r.prefix+key)
}

// Clear removes all praxis cache entries
func (r *RedisCache) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		r.client.Del(ctx, iter.Val())
	}
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
