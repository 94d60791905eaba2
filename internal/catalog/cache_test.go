package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-checkout/internal/catalog"
)

func newCacheClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestCacheRoundTrip(t *testing.T) {
	client, _ := newCacheClient(t)
	cache := catalog.NewCache(client, time.Minute)

	snap := catalog.Snapshot{
		Products: []catalog.Product{
			{ID: "p1", Title: "Espresso", Category: "drinks", Price: 250, DiscountPercent: 20},
		},
		Categories: []catalog.CategoryDiscount{
			{Title: "drinks", DiscountPercent: 50},
		},
		FetchedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.Store(context.Background(), snap))

	loaded, ok, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap.Products, loaded.Products)
	require.Equal(t, snap.Categories, loaded.Categories)
	require.True(t, snap.FetchedAt.Equal(loaded.FetchedAt))
}

func TestCacheMiss(t *testing.T) {
	client, _ := newCacheClient(t)
	cache := catalog.NewCache(client, time.Minute)

	_, ok, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	client, mr := newCacheClient(t)
	cache := catalog.NewCache(client, time.Second)

	require.NoError(t, cache.Store(context.Background(), catalog.Snapshot{FetchedAt: time.Now()}))
	mr.FastForward(2 * time.Second)

	_, ok, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheNilClientIsNoop(t *testing.T) {
	cache := catalog.NewCache(nil, time.Minute)
	require.NoError(t, cache.Store(context.Background(), catalog.Snapshot{}))
	_, ok, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}
