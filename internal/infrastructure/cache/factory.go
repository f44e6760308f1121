package cache

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gpms/backend/internal/domain/inventory"
	"github.com/gpms/backend/internal/infrastructure/config"
)

// ViewCache is an inventory.ViewCache that holds resources until closed.
type ViewCache interface {
	inventory.ViewCache
	io.Closer
}

// NewViewCache builds the cache selected by cfg.Backend. When redis is
// selected but unreachable it falls back to the in-memory cache unless
// fallback is disabled.
func NewViewCache(ctx context.Context, cfg config.CacheConfig, redisCfg config.RedisConfig, allowFallback bool, logger *zap.Logger) (ViewCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Backend != "redis" {
		logger.Info("Using in-memory product view cache", zap.Duration("ttl", cfg.TTL))
		return NewInMemoryViewCache(cfg.TTL), nil
	}

	rc, err := NewRedisViewCache(ctx, &redis.Options{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	}, WithKeyPrefix(cfg.KeyPrefix), WithTTL(cfg.TTL), WithCacheLogger(logger))
	if err == nil {
		logger.Info("Using Redis product view cache", zap.String("addr", redisCfg.Addr()))
		return rc, nil
	}

	if !allowFallback {
		return nil, fmt.Errorf("redis view cache unavailable: %w", err)
	}

	logger.Warn("Redis unavailable, falling back to in-memory product view cache. "+
		"Invalidations will not be shared across instances.",
		zap.Error(err),
	)
	return NewInMemoryViewCache(cfg.TTL), nil
}
