package catalog_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-checkout/internal/catalog"
	"github.com/noah-isme/pos-checkout/internal/events"
	"github.com/noah-isme/pos-checkout/internal/resilience"
)

func catalogHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/categories/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"allCategories":[{"title":"drinks","discount":50,"discountExpiration":"2099-01-01T00:00:00Z"}]}`)
	})
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"allProducts":[{"_id":"p1","title":"Espresso","category":"drinks","price":2.50,"discount":0,"discountExpiration":"2000-01-01T00:00:00Z"}]}`)
	})
	return mux
}

type topicRecorder struct {
	topics []string
}

func (r *topicRecorder) Notify(_ context.Context, event events.Event) error {
	r.topics = append(r.topics, event.Topic)
	return nil
}

func TestLoaderPopulatesTableAndStore(t *testing.T) {
	srv := httptest.NewServer(catalogHandler())
	defer srv.Close()

	client, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL: srv.URL,
		HTTP:    resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1},
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	bus := events.NewBus(zerolog.Nop())
	recorder := &topicRecorder{}
	bus.Subscribe(recorder)

	table := catalog.NewTable()
	store := catalog.NewStore()
	loader := &catalog.Loader{
		Client:      client,
		Table:       table,
		Store:       store,
		Bus:         bus,
		Logger:      zerolog.Nop(),
		MaxAttempts: 1,
	}
	require.NoError(t, loader.Run(context.Background()))

	require.True(t, table.Loaded())
	require.True(t, store.Loaded())
	percent, _, ok := table.CategoryDiscount("drinks")
	require.True(t, ok)
	require.Equal(t, 50, percent)
	_, ok = store.Get("p1")
	require.True(t, ok)
	require.Equal(t, []string{events.TopicCatalogLoaded}, recorder.topics)
}

func TestLoaderFallsBackToSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	cache := catalog.NewCache(redisClient, time.Hour)

	require.NoError(t, cache.Store(context.Background(), catalog.Snapshot{
		Products:   []catalog.Product{{ID: "p9", Title: "Cached", Category: "snacks", Price: 100}},
		Categories: []catalog.CategoryDiscount{{Title: "snacks", DiscountPercent: 30}},
		FetchedAt:  time.Now(),
	}))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL: srv.URL,
		HTTP:    resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1, BaseBackoff: time.Millisecond},
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	table := catalog.NewTable()
	store := catalog.NewStore()
	loader := &catalog.Loader{
		Client:      client,
		Cache:       cache,
		Table:       table,
		Store:       store,
		Logger:      zerolog.Nop(),
		MaxAttempts: 2,
		BaseBackoff: time.Millisecond,
	}
	require.NoError(t, loader.Run(context.Background()))

	require.True(t, table.Loaded())
	_, ok := store.Get("p9")
	require.True(t, ok)
}

func TestLoaderFailsWithoutSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL: srv.URL,
		HTTP:    resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1, BaseBackoff: time.Millisecond},
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	loader := &catalog.Loader{
		Client:      client,
		Table:       catalog.NewTable(),
		Store:       catalog.NewStore(),
		Logger:      zerolog.Nop(),
		MaxAttempts: 2,
		BaseBackoff: time.Millisecond,
	}
	err = loader.Run(context.Background())
	require.Error(t, err)
	require.False(t, loader.Table.Loaded())
}
