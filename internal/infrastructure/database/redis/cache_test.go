package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/testutil"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
)

type seriesPayload struct {
	Country string  `json:"country"`
	Value   float64 `json:"value"`
}

func newMockedCache(t *testing.T, opts ...CacheOption) (Cache, redismock.ClientMock) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	client := &Client{rdb: rdb, log: testutil.NewMockLogger()}
	cache := NewCache(client, testutil.NewMockLogger(), opts...)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return cache, mock
}

func TestCacheGetHit(t *testing.T) {
	cache, mock := newMockedCache(t, WithPrefix("test:"))

	want := seriesPayload{Country: "AUS", Value: 50000}
	raw, err := json.Marshal(want)
	require.NoError(t, err)
	mock.ExpectGet("test:wdi:NY_GNP_PCAP_CD").SetVal(string(raw))

	var got seriesPayload
	require.NoError(t, cache.Get(context.Background(), "wdi:NY_GNP_PCAP_CD", &got))
	assert.Equal(t, want, got)
}

func TestCacheGetMiss(t *testing.T) {
	cache, mock := newMockedCache(t, WithPrefix("test:"))
	mock.ExpectGet("test:absent").RedisNil()

	var got seriesPayload
	err := cache.Get(context.Background(), "absent", &got)
	assert.Equal(t, ErrCacheMiss, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestCacheGetCorruptPayload(t *testing.T) {
	cache, mock := newMockedCache(t, WithPrefix("test:"))
	mock.ExpectGet("test:bad").SetVal("{not json")

	var got seriesPayload
	err := cache.Get(context.Background(), "bad", &got)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestCacheSetUsesDefaultTTLWhenZero(t *testing.T) {
	cache, mock := newMockedCache(t, WithPrefix("test:"), WithDefaultTTL(time.Hour))

	value := seriesPayload{Country: "DEU", Value: 48000}
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	mock.ExpectSet("test:k", raw, time.Hour).SetVal("OK")

	assert.NoError(t, cache.Set(context.Background(), "k", value, 0))
}

func TestCacheDelete(t *testing.T) {
	cache, mock := newMockedCache(t, WithPrefix("test:"))
	mock.ExpectDel("test:a", "test:b").SetVal(2)

	assert.NoError(t, cache.Delete(context.Background(), "a", "b"))
}

func TestCacheDeleteNoKeys(t *testing.T) {
	cache, _ := newMockedCache(t)
	assert.NoError(t, cache.Delete(context.Background()))
}

func TestGetOrSetReturnsCachedValueWithoutLoading(t *testing.T) {
	cache, mock := newMockedCache(t, WithPrefix("test:"))

	want := seriesPayload{Country: "MEX", Value: 18000}
	raw, err := json.Marshal(want)
	require.NoError(t, err)
	mock.ExpectGet("test:k").SetVal(string(raw))

	var got seriesPayload
	err = cache.GetOrSet(context.Background(), "k", &got, time.Hour,
		func(context.Context) (interface{}, error) {
			t.Fatal("loader must not run on a cache hit")
			return nil, nil
		})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetOrSetLoadsAndPopulatesOnMiss(t *testing.T) {
	cache, mock := newMockedCache(t, WithPrefix("test:"))

	loaded := seriesPayload{Country: "AUS", Value: 50000}
	raw, err := json.Marshal(loaded)
	require.NoError(t, err)

	mock.ExpectGet("test:k").RedisNil()
	mock.ExpectSet("test:k", raw, time.Hour).SetVal("OK")

	var got seriesPayload
	var calls int
	err = cache.GetOrSet(context.Background(), "k", &got, time.Hour,
		func(context.Context) (interface{}, error) {
			calls++
			return loaded, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, loaded, got)
}

func TestGetOrSetSurvivesPopulateFailure(t *testing.T) {
	cache, mock := newMockedCache(t, WithPrefix("test:"))

	loaded := seriesPayload{Country: "DEU", Value: 48000}
	raw, err := json.Marshal(loaded)
	require.NoError(t, err)

	mock.ExpectGet("test:k").RedisNil()
	mock.ExpectSet("test:k", raw, time.Hour).SetErr(errors.New(errors.ErrCodeCacheError, "redis down"))

	var got seriesPayload
	err = cache.GetOrSet(context.Background(), "k", &got, time.Hour,
		func(context.Context) (interface{}, error) { return loaded, nil })
	require.NoError(t, err)
	assert.Equal(t, loaded, got)
}

func TestGetOrSetPropagatesLoaderError(t *testing.T) {
	cache, mock := newMockedCache(t, WithPrefix("test:"))
	mock.ExpectGet("test:k").RedisNil()

	var got seriesPayload
	err := cache.GetOrSet(context.Background(), "k", &got, time.Hour,
		func(context.Context) (interface{}, error) {
			return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "upstream down")
		})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceUnavailable))
}
