package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix = "cache:"
	// DefaultCacheTTL keeps the resident-facing document catalog warm between
	// the rare staff edits; every mutation deletes the key anyway.
	DefaultCacheTTL = 1 * time.Hour

	// CacheKeyActiveDocumentTypes holds the resident-facing catalog listing.
	CacheKeyActiveDocumentTypes = "document_types:active"
)

// CacheService is a small JSON cache over Redis.
type CacheService struct {
	redis *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{redis: client}
}

// Get retrieves a value; a miss is not an error.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.redis.Get(ctx, cacheKeyPrefix+key).Result()
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value with the default TTL.
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, cacheKeyPrefix+key, data, DefaultCacheTTL).Err()
}

// Delete removes a value (cache invalidation on writes).
func (c *CacheService) Delete(ctx context.Context, key string) error {
	return c.redis.Del(ctx, cacheKeyPrefix+key).Err()
}
