package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewClient builds a client for addr. Unlike the store clients it is created
// once and shared, since go-redis pools connections internally.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
		Protocol: 2,
	})
}

// Ping verifies the server is reachable.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
