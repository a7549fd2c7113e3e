package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tubepulse/infrastructure/logger"
)

// NewCache connects a Redis client and verifies it with a ping.
func NewCache(ctx context.Context, address, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// redisEnvelope wraps a payload with its freshness deadline. The Redis key
// itself expires only after the stale retention window, so GetStale can
// still read entries whose TTL has lapsed.
type redisEnvelope struct {
	ExpiresAt time.Time `json:"expires_at"`
	Value     []byte    `json:"value"`
}

// RedisCache is the shared response cache backend. Transport errors are
// reported as misses; cached data is always reproducible from upstream.
type RedisCache struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, now: time.Now}
}

func (c *RedisCache) GetFresh(ctx context.Context, key string) ([]byte, bool) {
	env, ok := c.load(ctx, key)
	if !ok || c.now().After(env.ExpiresAt) {
		return nil, false
	}
	return env.Value, true
}

func (c *RedisCache) GetStale(ctx context.Context, key string) ([]byte, bool) {
	env, ok := c.load(ctx, key)
	if !ok {
		return nil, false
	}
	return env.Value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	raw, err := json.Marshal(redisEnvelope{ExpiresAt: c.now().Add(ttl), Value: value})
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Unable to encode cache envelope")
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl+staleRetention).Err(); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"key": key, "error": err}).Warn("Unable to write cache entry")
	}
}

func (c *RedisCache) load(ctx context.Context, key string) (redisEnvelope, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.GetLogger().WithFields(map[string]interface{}{"key": key, "error": err}).Warn("Cache read failed, treating as miss")
		}
		return redisEnvelope{}, false
	}
	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return redisEnvelope{}, false
	}
	return env, true
}
