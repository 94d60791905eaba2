package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-checkout/internal/events"
	"github.com/noah-isme/pos-checkout/internal/resilience"
)

// Loader performs the one-shot catalog fetch at session start. Retry policy
// lives here, at the collaborator boundary; the cart engine only observes
// the table flipping to loaded.
type Loader struct {
	Client      *Client
	Cache       *Cache
	Table       *Table
	Store       *Store
	Bus         *events.Bus
	Logger      zerolog.Logger
	MaxAttempts int
	BaseBackoff time.Duration
}

// Run fetches products and categories, populating the table and store. When
// every attempt fails it falls back to a cached snapshot if one exists.
func (l *Loader) Run(ctx context.Context) error {
	if l == nil || l.Client == nil || l.Table == nil || l.Store == nil {
		return errors.New("catalog: loader not configured")
	}
	maxAttempts := l.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoff := l.BaseBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		snap, err := l.fetch(ctx)
		if err == nil {
			l.apply(snap, "catalog")
			if storeErr := l.Cache.Store(ctx, snap); storeErr != nil {
				l.Logger.Warn().Err(storeErr).Msg("cache catalog snapshot")
			}
			return nil
		}
		lastErr = err
		l.Logger.Warn().Err(err).Int("attempt", attempt).Msg("catalog fetch failed")
		if attempt == maxAttempts {
			break
		}
		timer := time.NewTimer(resilience.Backoff(backoff, attempt, 0.2))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	snap, ok, cacheErr := l.Cache.Load(ctx)
	if cacheErr != nil {
		l.Logger.Warn().Err(cacheErr).Msg("load catalog snapshot")
	}
	if ok {
		l.Logger.Warn().Time("fetched_at", snap.FetchedAt).Msg("catalog unreachable, serving cached snapshot")
		l.apply(snap, "snapshot")
		return nil
	}
	return fmt.Errorf("catalog: load failed after %d attempts: %w", maxAttempts, lastErr)
}

func (l *Loader) fetch(ctx context.Context) (Snapshot, error) {
	categories, err := l.Client.Categories(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	products, err := l.Client.Products(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Products: products, Categories: categories, FetchedAt: time.Now()}, nil
}

func (l *Loader) apply(snap Snapshot, source string) {
	l.Table.Load(snap.Categories)
	l.Store.Load(snap.Products)
	l.Logger.Info().
		Str("source", source).
		Int("products", l.Store.Len()).
		Int("categories", l.Table.Len()).
		Msg("catalog loaded")
	if l.Bus != nil {
		_, _ = l.Bus.Emit(context.Background(), events.TopicCatalogLoaded, events.CatalogLoad{
			Products:   l.Store.Len(),
			Categories: l.Table.Len(),
		})
	}
}
