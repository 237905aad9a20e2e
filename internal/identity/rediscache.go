package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs MappingCache with a TTL so a changed customer record is
// picked up after at most one TTL window.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func key(email string) string {
	return fmt.Sprintf("identity:email:%s", email)
}

func (c *RedisCache) Get(ctx context.Context, email string) (int64, bool, error) {
	id, err := c.rdb.Get(ctx, key(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (c *RedisCache) Set(ctx context.Context, email string, customerID int64) error {
	return c.rdb.Set(ctx, key(email), customerID, c.ttl).Err()
}
