package modelcache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/trainload/internal/analytics"
)

var _ analytics.ModelCache = (*Redis)(nil)

func TestRedis_GetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedis(db, time.Hour)

	mock.ExpectGet("trainload:model:alice:abc").SetErr(redis.Nil)
	model, ok, err := cache.Get(context.Background(), "alice", "abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, model)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_PutThenGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedis(db, 6*time.Hour)
	ctx := context.Background()

	want := testModel()
	data, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectSet("trainload:model:alice:abc", data, 6*time.Hour).SetVal("OK")
	require.NoError(t, cache.Put(ctx, "alice", "abc", want))

	mock.ExpectGet("trainload:model:alice:abc").SetVal(string(data))
	got, ok, err := cache.Get(ctx, "alice", "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewRedis(db, time.Hour)
	ctx := context.Background()

	mock.ExpectGet("trainload:model:alice:abc").SetErr(errors.New("connection reset"))
	_, ok, err := cache.Get(ctx, "alice", "abc")
	require.Error(t, err)
	assert.False(t, ok)

	mock.ExpectGet("trainload:model:alice:abc").SetVal("{not json")
	_, ok, err = cache.Get(ctx, "alice", "abc")
	require.Error(t, err)
	assert.False(t, ok)

	mock.ExpectSet("trainload:model:alice:abc", []byte("null"), time.Hour).SetErr(errors.New("READONLY"))
	require.Error(t, cache.Put(ctx, "alice", "abc", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
