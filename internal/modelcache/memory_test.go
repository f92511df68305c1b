package modelcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/config"
	"github.com/claude/trainload/internal/models"
)

var (
	_ analytics.ModelCache = (*Memory)(nil)
	_ analytics.ModelCache = (*Tiered)(nil)
	_ analytics.ModelCache = Nop{}
)

func TestMemory_RoundTrip(t *testing.T) {
	cache := NewMemory(megabyte, time.Hour)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "alice", "fp1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := testModel()
	require.NoError(t, cache.Put(ctx, "alice", "fp1", want))
	got, ok, err := cache.Get(ctx, "alice", "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.EqualValues(t, 1, cache.Len())

	// a new fingerprint is a different entry
	_, ok, err = cache.Get(ctx, "alice", "fp2")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, "bob", "fp1")
	assert.False(t, ok)
}

func modelWithExercises(n int) *models.HierarchicalFatigueModel {
	model := testModel()
	model.ExerciseSpecificFactors = make(map[string]models.ExerciseFatigueFactor, n)
	for i := range n {
		model.ExerciseSpecificFactors[fmt.Sprintf("exercise_variation_%03d", i)] = models.ExerciseFatigueFactor{
			BaselineFatigueRate: 0.05 + float64(i)/100003,
			RawFatigueRate:      ptr(0.06 + float64(i)/100019),
			Variance:            0.0004 + float64(i)/1000033,
			SampleSize:          40 + i,
			Sessions:            12,
		}
	}
	return model
}

func TestMemory_LargeModel(t *testing.T) {
	ctx := context.Background()
	big := modelWithExercises(200)
	data, err := json.Marshal(big)
	require.NoError(t, err)
	require.Greater(t, len(data), 16*1024)

	// 16 MiB holds entries up to about 16 KiB
	small := NewMemory(16*megabyte, time.Hour)
	err = small.Put(ctx, "alice", "fp", big)
	require.ErrorIs(t, err, analytics.ErrCacheEntryTooLarge)
	_, ok, err := small.Get(ctx, "alice", "fp")
	require.NoError(t, err)
	assert.False(t, ok)

	cache := NewMemory(0, time.Hour)
	assert.Greater(t, cache.MaxEntry(), len(data))
	require.NoError(t, cache.Put(ctx, "alice", "fp", big))
	got, ok, err := cache.Get(ctx, "alice", "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, big, got)
}

func TestMemory_MaxEntryMatchesFreecache(t *testing.T) {
	assert.Equal(t, 16*1024-24, NewMemory(16*megabyte, 0).MaxEntry())
	// freecache rounds small caches up to 512 KiB
	assert.Equal(t, 512-24, NewMemory(1024, 0).MaxEntry())
}

type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string, string) (*models.HierarchicalFatigueModel, bool, error) {
	return nil, false, f.err
}

func (f failingCache) Put(context.Context, string, string, *models.HierarchicalFatigueModel) error {
	return f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTiered_FillsFrontOnBackHit(t *testing.T) {
	ctx := context.Background()
	front := NewMemory(megabyte, time.Hour)
	back := NewMemory(megabyte, time.Hour)
	require.NoError(t, back.Put(ctx, "alice", "fp", testModel()))

	tiered := NewTiered(front, back, discard())
	got, ok, err := tiered.Get(ctx, "alice", "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testModel(), got)

	_, ok, err = front.Get(ctx, "alice", "fp")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTiered_FrontFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	back := NewMemory(megabyte, time.Hour)
	tiered := NewTiered(failingCache{err: errors.New("broken")}, back, discard())

	require.NoError(t, tiered.Put(ctx, "alice", "fp", testModel()))

	got, ok, err := tiered.Get(ctx, "alice", "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testModel(), got)
}

func TestTiered_PutReportsOnlyBackFailures(t *testing.T) {
	ctx := context.Background()
	big := modelWithExercises(200)

	// the front refuses the entry, the back keeps it
	back := NewMemory(DefaultMemoryBytes, time.Hour)
	tiered := NewTiered(NewMemory(megabyte, time.Hour), back, discard())
	require.NoError(t, tiered.Put(ctx, "alice", "fp", big))
	_, ok, err := back.Get(ctx, "alice", "fp")
	require.NoError(t, err)
	assert.True(t, ok)

	tiered = NewTiered(NewMemory(megabyte, time.Hour), failingCache{err: errors.New("redis down")}, discard())
	assert.EqualError(t, tiered.Put(ctx, "alice", "fp", testModel()), "redis down")
}

func TestTiered_BackErrorIsReported(t *testing.T) {
	tiered := NewTiered(NewMemory(megabyte, 0), failingCache{err: errors.New("redis down")}, discard())
	_, ok, err := tiered.Get(context.Background(), "alice", "fp")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, Nop{}.Put(ctx, "alice", "fp", testModel()))
	_, ok, err := Nop{}.Get(ctx, "alice", "fp")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFromConfig(t *testing.T) {
	cache, rdb := FromConfig(config.CacheConfig{}, discard())
	assert.IsType(t, Nop{}, cache)
	assert.Nil(t, rdb)

	cache, rdb = FromConfig(config.CacheConfig{MemoryBytes: megabyte, TTL: time.Hour}, discard())
	assert.IsType(t, &Memory{}, cache)
	assert.Nil(t, rdb)
}
