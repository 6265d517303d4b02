package cache

import (
	"context"
	"fmt"
	"time"

	"realestate_backend/internal/config"

	"go.uber.org/zap"
)

// NewKV builds the KV backend selected by CACHE_DRIVER.
func NewKV(cfg *config.Config, logger *zap.Logger) (KV, func(), error) {
	logger = logger.Named("cache")
	var (
		kv  KV
		err error
	)

	switch cfg.CacheDriver {
	case config.CacheDriverRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		kv, err = NewRedisKV(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.CacheDriverMemcached:
		kv, err = NewMemcacheKV(cfg.MemcachedServers...)
	case config.CacheDriverMemory, "":
		kv = NewMemoryKV(time.Minute)
	default:
		err = fmt.Errorf("unsupported cache driver %q", cfg.CacheDriver)
	}
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Key-value cache initialized", zap.String("driver", cfg.CacheDriver))
	cleanup := func() {
		if err := kv.Close(); err != nil {
			logger.Error("Failed to close cache", zap.Error(err))
		}
	}
	return kv, cleanup, nil
}

// NewReadCache builds the tiered cache shared by property and settings reads.
func NewReadCache(cfg *config.Config, kv KV, logger *zap.Logger) *Tiered {
	return NewTiered(kv, cfg.PropertyCacheTTL, 10*time.Second, 1000, logger)
}
