package modelcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"

	"github.com/claude/trainload/internal/models"
	"github.com/claude/trainload/internal/telemetry/tracing"
)

const keyPrefix = "trainload:model:"

func cacheKey(userID, fingerprint string) string {
	return keyPrefix + userID + ":" + fingerprint
}

// NewRedisClient connects to Redis with tracing enabled.
func NewRedisClient(addr, password string, db int) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	rdb.AddHook(redisotel.NewTracingHook())
	return rdb
}

// Redis stores fitted models as JSON with a TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, userID, fingerprint string) (model *models.HierarchicalFatigueModel, found bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "modelcache.redis.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	data, err := r.rdb.Get(ctx, cacheKey(userID, fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	model = &models.HierarchicalFatigueModel{}
	if err := json.Unmarshal(data, model); err != nil {
		return nil, false, fmt.Errorf("decoding cached model: %w", err)
	}
	return model, true, nil
}

func (r *Redis) Put(ctx context.Context, userID, fingerprint string, model *models.HierarchicalFatigueModel) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "modelcache.redis.put")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := r.rdb.Set(ctx, cacheKey(userID, fingerprint), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
