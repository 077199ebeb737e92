// Package cache caches the public test station registry in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nursix/gims/internal/ports/secondary"
)

// RegistryKey is the key under which the listing is stored.
const RegistryKey = "gims:registry:public"

// store is the subset of redis.Cmdable used by the cache.
type store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RegistryCache stores the JSON-encoded registry listing with a TTL.
type RegistryCache struct {
	client store
	ttl    time.Duration
}

// NewRegistryCache creates a cache on client. A zero ttl keeps the
// listing until it is invalidated.
func NewRegistryCache(client redis.Cmdable, ttl time.Duration) *RegistryCache {
	return &RegistryCache{client: client, ttl: ttl}
}

// Connect creates a client for addr and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Get returns the cached listing, and false on a cache miss.
func (c *RegistryCache) Get(ctx context.Context) ([]secondary.RegistryEntry, bool, error) {
	data, err := c.client.Get(ctx, RegistryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read registry cache: %w", err)
	}

	var entries []secondary.RegistryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode registry cache: %w", err)
	}
	return entries, true, nil
}

// Set stores the listing.
func (c *RegistryCache) Set(ctx context.Context, entries []secondary.RegistryEntry) error {
	if entries == nil {
		entries = []secondary.RegistryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	if err := c.client.Set(ctx, RegistryKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write registry cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached listing.
func (c *RegistryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, RegistryKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate registry cache: %w", err)
	}
	return nil
}

// NoopRegistryCache never caches. Used when no Redis is configured.
type NoopRegistryCache struct{}

func (NoopRegistryCache) Get(context.Context) ([]secondary.RegistryEntry, bool, error) {
	return nil, false, nil
}

func (NoopRegistryCache) Set(context.Context, []secondary.RegistryEntry) error { return nil }

func (NoopRegistryCache) Invalidate(context.Context) error { return nil }

var (
	_ secondary.RegistryCache = (*RegistryCache)(nil)
	_ secondary.RegistryCache = NoopRegistryCache{}
)
