// Package cache keeps the class statistics summary in Redis between writes.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/model"
)

// StatisticsCache stores the serialized Statistics under a single key,
// stamped with the write generation it was computed at. Invalidate bumps the
// generation, so a summary computed before a write is never served after it,
// even if it is stored late.
//
// Cache failures are logged and otherwise ignored; the database stays the
// source of truth.
type StatisticsCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

type statisticsEntry struct {
	Generation int64             `json:"generation"`
	Stats      *model.Statistics `json:"stats"`
}

// NewStatisticsCache creates a StatisticsCache.
func NewStatisticsCache(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *StatisticsCache {
	return &StatisticsCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "statistics_cache").Logger(),
	}
}

// Get returns the cached summary if it belongs to the current generation.
// The generation is returned on a miss too, for the following Set.
func (c *StatisticsCache) Get(ctx context.Context) (*model.Statistics, int64, bool) {
	vals, err := c.rdb.MGet(ctx,
		config.CacheKey.StatisticsGenerationKey(),
		config.CacheKey.StatisticsKey(),
	).Result()
	if err != nil {
		c.log.Warn().Err(err).Msg("Statistics cache read failed")
		return nil, 0, false
	}

	generation, err := parseGeneration(vals[0])
	if err != nil {
		c.log.Warn().Err(err).Msg("Statistics generation is corrupt")
		return nil, 0, false
	}

	raw, ok := vals[1].(string)
	if !ok {
		return nil, generation, false
	}
	var entry statisticsEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Stats == nil {
		c.log.Warn().Err(err).Msg("Statistics cache entry is corrupt")
		return nil, generation, false
	}
	if entry.Generation != generation {
		return nil, generation, false
	}
	return entry.Stats, generation, true
}

// Set stores a summary computed at generation for the configured TTL.
func (c *StatisticsCache) Set(ctx context.Context, generation int64, stats *model.Statistics) {
	raw, err := json.Marshal(statisticsEntry{Generation: generation, Stats: stats})
	if err != nil {
		c.log.Warn().Err(err).Msg("Statistics cache encode failed")
		return
	}
	if err := c.rdb.Set(ctx, config.CacheKey.StatisticsKey(), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Statistics cache write failed")
	}
}

// Invalidate starts a new generation and drops the cached summary.
func (c *StatisticsCache) Invalidate(ctx context.Context) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, config.CacheKey.StatisticsGenerationKey())
		pipe.Del(ctx, config.CacheKey.StatisticsKey())
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("Statistics cache invalidation failed")
	}
}

func parseGeneration(v interface{}) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
