package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"MarketPulse/internal/common"
)

// RedisConfig addresses a shared Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisCache stores JSON-encoded entries with a native expiry. Ages are re-checked on read so
// TTL semantics match MemoryCache even when Redis expiry lags.
type RedisCache[V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
	logger *common.Logger
}

type redisEntry[V any] struct {
	InsertedAt time.Time `json:"insertedAt"`
	Value      V         `json:"value"`
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache[V any](ctx context.Context, cfg RedisConfig, ttl time.Duration, logger *common.Logger) (*RedisCache[V], error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "pulse:"
	}
	return &RedisCache[V]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With("redis-cache"),
	}, nil
}

func (c *RedisCache[V]) key(k string) string { return c.prefix + Normalize(k) }

// Get treats backend errors as misses; the caller refetches.
func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		return zero, false
	}

	var e redisEntry[V]
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("corrupt cache entry")
		return zero, false
	}
	if expired(e.InsertedAt, c.now(), c.ttl) {
		return zero, false
	}
	return e.Value, true
}

func (c *RedisCache[V]) Put(ctx context.Context, key string, value V) error {
	data, err := json.Marshal(redisEntry[V]{InsertedAt: c.now(), Value: value})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}

// Purge is a no-op; Redis expires keys itself.
func (c *RedisCache[V]) Purge(context.Context) int { return 0 }

func (c *RedisCache[V]) Close() error {
	return c.client.Close()
}
