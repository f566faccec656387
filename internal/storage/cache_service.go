package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService stores JSON encoded values in Redis under namespaced keys
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis: redis,
		ttl:   ttl,
	}
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeyCatalog holds the reference catalog
	CacheKeyCatalog CacheKeyType = "catalog"
	// CacheKeyPortfolio holds portfolio summaries per wallet set and rent mode
	CacheKeyPortfolio CacheKeyType = "portfolio"
	// CacheKeyMarket holds the market divergence table
	CacheKeyMarket CacheKeyType = "market"
)

// GenerateCacheKey generates a cache key for a given type and parameters.
// Format: <type>:<param1>:<param2>:...
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, string(keyType))
	for _, param := range params {
		parts = append(parts, strings.ToLower(param))
	}
	return strings.Join(parts, ":")
}

// CatalogKey is the single key of the cached catalog
func (c *CacheService) CatalogKey() string {
	return c.GenerateCacheKey(CacheKeyCatalog, "all")
}

// PortfolioKey identifies a summary by its wallets and rent mode. Wallet
// order does not matter.
func (c *CacheService) PortfolioKey(addresses []string, rentMode string) string {
	sorted := make([]string, len(addresses))
	for i, addr := range addresses {
		sorted[i] = strings.ToLower(addr)
	}
	sort.Strings(sorted)
	return c.GenerateCacheKey(CacheKeyPortfolio, rentMode, strings.Join(sorted, ","))
}

// MarketKey identifies the divergence table for a window
func (c *CacheService) MarketKey(windowDays int) string {
	return c.GenerateCacheKey(CacheKeyMarket, fmt.Sprintf("%dd", windowDays))
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in cache with a custom TTL
func (c *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.redis.Set(ctx, key, data, ttl)
}

// Get retrieves a value from cache and deserializes it. A miss returns false
// without error.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return true, nil
}

// Invalidate removes one or more keys from cache
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...)
}

// InvalidateType removes every key of one type, e.g. all portfolios after a
// catalog refresh
func (c *CacheService) InvalidateType(ctx context.Context, keyType CacheKeyType) error {
	keys, err := c.redis.Scan(ctx, string(keyType)+":*")
	if err != nil {
		return fmt.Errorf("failed to find keys matching pattern: %w", err)
	}
	return c.Invalidate(ctx, keys...)
}

// TTL returns the configured TTL for this cache service
func (c *CacheService) TTL() time.Duration {
	return c.ttl
}
