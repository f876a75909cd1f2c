package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"appointly/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Cache is a read-through cache of schedules by calendar date. Failures are
// logged and treated as misses.
//
// Every day carries a generation that Invalidate bumps. Get reports the
// generation it saw and Set stores only while that generation is current, so
// a read that raced with a write cannot cache the older copy.
type Cache interface {
	Get(ctx context.Context, key models.DateKey) (s *models.Schedule, gen int64, ok bool)
	Set(ctx context.Context, s *models.Schedule, gen int64)
	Invalidate(ctx context.Context, key models.DateKey)
}

// RedisCache stores schedules as JSON under "schedule:date:<year>:<month>:<day>"
// and the day's generation under the same key with a ":gen" suffix.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// genTTL outlives any entry written under the generation.
const genTTL = 24 * time.Hour

var errStaleGeneration = errors.New("schedule cache generation moved")

func cacheKey(key models.DateKey) string {
	return fmt.Sprintf("schedule:date:%s:%s:%s", key.Year, key.Month, key.Day)
}

func genKey(key models.DateKey) string {
	return cacheKey(key) + ":gen"
}

func readGen(ctx context.Context, c interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}, key models.DateKey) (int64, error) {
	gen, err := c.Get(ctx, genKey(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) Get(ctx context.Context, key models.DateKey) (*models.Schedule, int64, bool) {
	var entry *redis.StringCmd
	var gen *redis.StringCmd
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		entry = p.Get(ctx, cacheKey(key))
		gen = p.Get(ctx, genKey(key))
		return nil
	})
	if err != nil && err != redis.Nil {
		c.logger.Warn("Schedule cache read failed", zap.String("key", cacheKey(key)), zap.Error(err))
		// -1 never matches a stored generation, so the caller will not Set.
		return nil, -1, false
	}

	g, gerr := gen.Int64()
	if gerr == redis.Nil {
		g = 0
	} else if gerr != nil {
		c.logger.Warn("Schedule cache generation is corrupt", zap.String("key", genKey(key)), zap.Error(gerr))
		return nil, -1, false
	}

	data, err := entry.Bytes()
	if err != nil {
		return nil, g, false
	}
	var s models.Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn("Schedule cache entry is corrupt", zap.String("key", cacheKey(key)), zap.Error(err))
		return nil, g, false
	}
	return &s, g, true
}

func (c *RedisCache) Set(ctx context.Context, s *models.Schedule, gen int64) {
	if gen < 0 {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		c.logger.Error("Failed to marshal schedule for cache", zap.String("scheduleId", s.ID), zap.Error(err))
		return
	}
	key := models.DateKey{Year: s.Year, Month: s.Month, Day: s.Day}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGen(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, cacheKey(key), data, c.ttl)
			return nil
		})
		return err
	}, genKey(key))
	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Skipping stale schedule cache write", zap.String("key", cacheKey(key)))
	default:
		c.logger.Warn("Schedule cache write failed", zap.String("key", cacheKey(key)), zap.Error(err))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, key models.DateKey) {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey(key))
		p.Expire(ctx, genKey(key), genTTL)
		p.Del(ctx, cacheKey(key))
		return nil
	})
	if err != nil {
		c.logger.Warn("Schedule cache invalidation failed", zap.String("key", cacheKey(key)), zap.Error(err))
	}
}

// NoopCache disables caching.
type NoopCache struct{}

func (NoopCache) Get(context.Context, models.DateKey) (*models.Schedule, int64, bool) {
	return nil, 0, false
}
func (NoopCache) Set(context.Context, *models.Schedule, int64) {}
func (NoopCache) Invalidate(context.Context, models.DateKey)   {}
