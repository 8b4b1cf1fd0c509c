package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
)

// catalogIndexKey is a set of every key the cache has written, so Flush can
// drop them without a KEYS scan.
const catalogIndexKey = "catalog:index"

// CatalogCache stores raw catalog responses under their request key.
type CatalogCache struct {
	client *redisclient.Client
}

func NewCatalogCache(client *redisclient.Client) *CatalogCache {
	return &CatalogCache{client: client}
}

func (c *CatalogCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redisclient.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set writes the value and records the key in the index in one transaction.
func (c *CatalogCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, value, ttl)
	pipe.SAdd(ctx, catalogIndexKey, key)
	pipe.Expire(ctx, catalogIndexKey, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for %s: %w", key, err)
	}
	return nil
}

// Flush removes every cached catalog response and returns how many keys
// were indexed.
func (c *CatalogCache) Flush(ctx context.Context) (int, error) {
	keys, err := c.client.SMembers(ctx, catalogIndexKey).Result()
	if err != nil {
		return 0, err
	}

	pipe := c.client.TxPipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, catalogIndexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to flush catalog cache: %w", err)
	}
	return len(keys), nil
}
