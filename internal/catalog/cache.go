package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// Cache stores loaded quizzes. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, id string) (*Quiz, error)
	Set(ctx context.Context, q Quiz) error
}

// RedisCache keeps quizzes as JSON strings with a jittered TTL.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(id string) string {
	return "catalog:quiz:" + id
}

func (c *RedisCache) Get(ctx context.Context, id string) (*Quiz, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var q Quiz
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *RedisCache) Set(ctx context.Context, q Quiz) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(q.ID), data, c.ttlWithJitter()).Err()
}

// ttlWithJitter adds up to 10% to spread expirations.
func (c *RedisCache) ttlWithJitter() time.Duration {
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
