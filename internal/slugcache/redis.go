package slugcache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "storefront:last_event_slug:"

// Cache remembers, per buyer, the slug of the most recently purchased event.
// It is written best-effort on a successful purchase and read by the
// post-redirect landing flow; a miss is not an error.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Client: client, TTL: ttl}
}

func (c *Cache) Put(ctx context.Context, owner, slug string) error {
	if owner == "" || slug == "" {
		return fmt.Errorf("slug cache: owner and slug are required")
	}
	return c.Client.Set(ctx, keyPrefix+owner, slug, c.TTL).Err()
}

// Get returns the cached slug for the owner, or "" when nothing is cached.
func (c *Cache) Get(ctx context.Context, owner string) (string, error) {
	val, err := c.Client.Get(ctx, keyPrefix+owner).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
