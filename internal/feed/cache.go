package feed

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache stores external lookup results (image URLs, news headlines) so the
// feed generator does not hammer third-party APIs on every regeneration.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a redis client as a Cache. Failures are logged and
// treated as cache misses; the cache is an optimization, never a
// dependency.
func NewRedisCache(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		return "", false
	}
	return val, true
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

type noopCache struct{}

// NewNoopCache returns a Cache that stores nothing, for setups without
// Redis.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) (string, bool)             { return "", false }
func (noopCache) Set(context.Context, string, string, time.Duration)     {}
