package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*StatisticsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	return NewStatisticsCache(rdb, time.Minute, zerolog.Nop()), mr
}

func summary(total int) *model.Statistics {
	return &model.Statistics{
		TotalStudents:     total,
		AverageAge:        19.5,
		AveragePercentage: 71,
		GradeDistribution: []model.Bucket{{Label: "A", Count: total, Share: 100}},
		GenderBreakdown:   []model.Bucket{{Label: "Male", Count: total, Share: 100}},
		SubjectAverages:   []model.SubjectAverage{{Subject: "Math", Average: 82.5}},
	}
}

func TestStatisticsCacheMissThenHit(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	stats, gen, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, stats)
	assert.Zero(t, gen)

	c.Set(ctx, gen, summary(2))
	stats, gen, ok = c.Get(ctx)
	require.True(t, ok)
	assert.Zero(t, gen)
	assert.Equal(t, summary(2), stats)
}

func TestStatisticsCacheExpires(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, 0, summary(2))
	mr.FastForward(time.Minute + time.Second)

	_, _, ok := c.Get(ctx)
	assert.False(t, ok)
}

func TestStatisticsCacheInvalidate(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, 0, summary(2))
	c.Invalidate(ctx)
	assert.False(t, mr.Exists(config.CacheKey.StatisticsKey()))

	_, gen, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.Equal(t, int64(1), gen)

	// Computed before the write, stored after it.
	c.Set(ctx, 0, summary(2))
	_, _, ok = c.Get(ctx)
	assert.False(t, ok)

	c.Set(ctx, gen, summary(3))
	stats, _, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, 3, stats.TotalStudents)
}

func TestStatisticsCacheCorruptEntries(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(config.CacheKey.StatisticsKey(), "not json"))
	_, _, ok := c.Get(ctx)
	assert.False(t, ok)

	require.NoError(t, mr.Set(config.CacheKey.StatisticsKey(), `{"generation": 0}`))
	_, _, ok = c.Get(ctx)
	assert.False(t, ok)

	require.NoError(t, mr.Set(config.CacheKey.StatisticsGenerationKey(), "many"))
	c.Set(ctx, 0, summary(1))
	_, _, ok = c.Get(ctx)
	assert.False(t, ok)
}

func TestStatisticsCacheToleratesRedisDown(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	mr.Close()

	_, _, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		c.Set(ctx, 0, summary(1))
		c.Invalidate(ctx)
	})
}
