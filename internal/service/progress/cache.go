package progress

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ViewCache holds aggregate views in Redis with a fixed TTL. It is a pure
// view cache: a miss or a Redis outage just means recomputing from the store.
type ViewCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewViewCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ViewCache {
	return &ViewCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get loads a cached view into out. Returns false on miss or error.
func (c *ViewCache) Get(ctx context.Context, key string, out any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Progress cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	return true
}

// Set stores a view; failures are logged and otherwise ignored.
func (c *ViewCache) Set(ctx context.Context, key string, v any) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Progress cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops cached views after a mutation.
func (c *ViewCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Progress cache invalidation failed", zap.Error(err))
	}
}
