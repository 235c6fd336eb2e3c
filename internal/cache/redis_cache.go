package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/autumnsgrove/cdnup/internal/address"
	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/port"
)

// RedisCache shares the analysis cache between machines through Redis.
// Entries are content-addressed, so they are written without expiry.
type RedisCache struct {
	client redis.UniversalClient
}

// compile-time check: *RedisCache must satisfy port.AnalysisCache
var _ port.AnalysisCache = (*RedisCache)(nil)

func NewRedisCache(addr, password string) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &RedisCache{client: rdb}
}

func (c *RedisCache) Get(ctx context.Context, id address.Identity) (*model.AnalysisRecord, error) {
	val, err := c.client.Get(ctx, cacheKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var rec model.AnalysisRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}
	return &rec, nil
}

func (c *RedisCache) Put(ctx context.Context, id address.Identity, rec *model.AnalysisRecord) error {
	log.Printf("creating analysis cache entry for %s...", id)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func cacheKey(id address.Identity) string {
	return "analysis:" + string(id)
}
