package prisons

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a fetched prison list is reused
const DefaultCacheTTL = 15 * time.Minute

// CachedList is the cached raw prison list
type CachedList struct {
	Prisons   []Prison  `json:"prisons"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cache stores the raw prison list in Redis
type Cache struct {
	redisClient *redis.Client
	key         string
	ttl         time.Duration
}

// NewCache creates a Redis-backed cache. The key is usually prefixed by the
// redis config.
func NewCache(redisClient *redis.Client, key string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Cache{
		redisClient: redisClient,
		key:         key,
		ttl:         ttl,
	}
}

// Get returns the cached list, or nil on a cache miss
func (c *Cache) Get(ctx context.Context) (*CachedList, error) {
	data, err := c.redisClient.Get(ctx, c.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var cached CachedList
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return nil, err
	}

	return &cached, nil
}

// Set stores the list with the cache TTL
func (c *Cache) Set(ctx context.Context, cached CachedList) error {
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	return c.redisClient.Set(ctx, c.key, data, c.ttl).Err()
}

// Invalidate drops the cached list
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.redisClient.Del(ctx, c.key).Err()
}
