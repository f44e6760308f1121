package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/inventory"
)

const (
	defaultScanBatchSize = 100
	defaultKeyPrefix     = "pos:view:product:"
)

// RedisViewCache implements inventory.ViewCache using Redis, so every
// instance behind a load balancer sees the same invalidations.
type RedisViewCache struct {
	client     *redis.Client
	ownsClient bool
	keyPrefix  string
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisViewCacheOption is a functional option for configuring the cache
type RedisViewCacheOption func(*RedisViewCache)

// WithKeyPrefix sets the namespace all view keys live under
func WithKeyPrefix(prefix string) RedisViewCacheOption {
	return func(c *RedisViewCache) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// WithTTL sets the expiry of stored views. Zero keeps them until invalidated.
func WithTTL(ttl time.Duration) RedisViewCacheOption {
	return func(c *RedisViewCache) {
		c.ttl = ttl
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisViewCacheOption {
	return func(c *RedisViewCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRedisViewCache connects to Redis and verifies the connection.
func NewRedisViewCache(ctx context.Context, opts *redis.Options, cacheOpts ...RedisViewCacheOption) (*RedisViewCache, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisViewCacheWithClient(client, cacheOpts...)
	c.ownsClient = true
	return c, nil
}

// NewRedisViewCacheWithClient wraps an existing client. The caller keeps
// ownership of the client.
func NewRedisViewCacheWithClient(client *redis.Client, opts ...RedisViewCacheOption) *RedisViewCache {
	c := &RedisViewCache{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisViewCache) key(productID uuid.UUID) string {
	return c.keyPrefix + productID.String()
}

// Get retrieves a product view from Redis
func (c *RedisViewCache) Get(ctx context.Context, productID uuid.UUID) (*inventory.ProductView, bool, error) {
	data, err := c.client.Get(ctx, c.key(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get product view from cache: %w", err)
	}

	var view inventory.ProductView
	if err := json.Unmarshal(data, &view); err != nil {
		// a corrupt entry is treated as a miss and removed
		c.logger.Warn("Discarding undecodable product view",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		_ = c.client.Del(ctx, c.key(productID)).Err()
		return nil, false, nil
	}
	return &view, true, nil
}

// Set stores a product view as JSON
func (c *RedisViewCache) Set(ctx context.Context, view *inventory.ProductView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal product view: %w", err)
	}
	if err := c.client.Set(ctx, c.key(view.ProductID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store product view: %w", err)
	}
	return nil
}

// Invalidate deletes the views of the given products
func (c *RedisViewCache) Invalidate(ctx context.Context, productIDs ...uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate product views: %w", err)
	}
	return nil
}

// InvalidateAll removes every key under the cache prefix. SCAN is used so
// Redis is never blocked by KEYS.
func (c *RedisViewCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	var deletedCount int64

	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.keyPrefix+"*", defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deletedCount += deleted
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Info("Invalidated all product views", zap.Int64("deleted_count", deletedCount))
	return nil
}

// Close releases the client if this cache created it
func (c *RedisViewCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ inventory.ViewCache = (*RedisViewCache)(nil)
