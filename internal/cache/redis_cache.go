package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"pvcaisse/internal/caisse"
)

type RedisCatalogueCache struct {
	client *redis.Client
}

func NewRedisCatalogueCache(client *redis.Client) *RedisCatalogueCache {
	return &RedisCatalogueCache{client: client}
}

func (c *RedisCatalogueCache) Get(ctx context.Context) (*caisse.Catalog, bool, error) {
	val, err := c.client.Get(ctx, CatalogueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cat caisse.Catalog
	if err := json.Unmarshal([]byte(val), &cat); err != nil {
		return nil, false, err
	}
	return &cat, true, nil
}

func (c *RedisCatalogueCache) Set(ctx context.Context, value *caisse.Catalog, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CatalogueKey, payload, ttl).Err()
}

func (c *RedisCatalogueCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, CatalogueKey).Err()
}
