package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-catalogue/internal/catalog"
)

func TestCacheRoundTripAndInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := catalog.NewCache(client, time.Minute)
	ctx := context.Background()

	var got []string
	ok, err := cache.GetJSON(ctx, "catalog:test", &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.SetJSON(ctx, "catalog:test", []string{"a", "b"}))
	ok, err = cache.GetJSON(ctx, "catalog:test", &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, cache.Delete(ctx, "catalog:test"))
	ok, err = cache.GetJSON(ctx, "catalog:test", &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheNilClientIsNoop(t *testing.T) {
	cache := catalog.NewCache(nil, time.Minute)
	ctx := context.Background()
	require.NoError(t, cache.SetJSON(ctx, "k", "v"))
	var out string
	ok, err := cache.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	require.False(t, ok)
}
