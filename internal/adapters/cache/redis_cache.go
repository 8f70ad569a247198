// Package cache stores computed reports in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisReportCache implements portssvc.ReportCache with JSON values.
type RedisReportCache struct {
	client    redisClient
	namespace string
}

var _ portssvc.ReportCache = (*RedisReportCache)(nil)

// NewRedisClient connects to a single redis node, or a cluster when more
// than one address is given.
func NewRedisClient(ctx context.Context, addrs []string, password string) (redis.UniversalClient, error) {
	if len(addrs) == 0 {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewRedisReportCache(client redis.UniversalClient, namespace string) *RedisReportCache {
	return &RedisReportCache{client: client, namespace: namespace}
}

func (c *RedisReportCache) key(k string) string {
	if c.namespace == "" {
		return k
	}
	return c.namespace + ":" + k
}

// Get decodes a cached value into dst. A miss is (false, nil).
func (c *RedisReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("report cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("report cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("report cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("report cache set: %w", err)
	}
	return nil
}
