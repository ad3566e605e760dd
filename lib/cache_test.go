package lib

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRefreshesAfterTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	cache := NewCache(time.Minute, func(_ context.Context, key string) (int, error) {
		calls++
		return calls, nil
	}).WithClock(func() time.Time { return now })

	v, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 1, v, "fresh entry is served from cache")

	now = now.Add(2 * time.Minute)
	v, err = cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	cache.Invalidate("k")
	v, err = cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestCacheServesStaleOnError(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fail := false
	cache := NewCache(time.Minute, func(_ context.Context, _ string) (string, error) {
		if fail {
			return "", errors.New("upstream down")
		}
		return "fresh", nil
	}).WithClock(func() time.Time { return now })

	_, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)

	fail = true
	now = now.Add(time.Hour)
	v, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Equal(t, "fresh", v)
}
