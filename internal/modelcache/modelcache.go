// Package modelcache holds ModelCache implementations for fitted fatigue
// models: Redis, in-process, a tiered combination of both, and a no-op.
package modelcache

import (
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/config"
)

// FromConfig builds the cache stack described by cfg. The Redis client is
// returned for reuse and is nil when Redis is not configured.
func FromConfig(cfg config.CacheConfig, log *slog.Logger) (analytics.ModelCache, *redis.Client) {
	var rdb *redis.Client
	var back analytics.ModelCache
	if cfg.RedisAddr != "" {
		rdb = NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		back = NewRedis(rdb, cfg.TTL)
	}

	var front analytics.ModelCache
	if cfg.MemoryBytes > 0 {
		front = NewMemory(cfg.MemoryBytes, cfg.TTL)
	}

	switch {
	case front != nil && back != nil:
		log.Info("model cache: memory in front of redis", "addr", cfg.RedisAddr)
		return NewTiered(front, back, log), rdb
	case back != nil:
		log.Info("model cache: redis", "addr", cfg.RedisAddr)
		return back, rdb
	case front != nil:
		log.Info("model cache: memory only")
		return front, nil
	default:
		log.Info("model cache disabled")
		return Nop{}, nil
	}
}
