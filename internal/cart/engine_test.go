package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/pos-checkout/internal/catalog"
	"github.com/noah-isme/pos-checkout/internal/events"
	"github.com/noah-isme/pos-checkout/internal/pricing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubCategories struct {
	mu        sync.Mutex
	loaded    bool
	discounts map[string]catalog.CategoryDiscount
}

func (s *stubCategories) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *stubCategories) CategoryDiscount(title string) (int, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.discounts[title]
	if !ok {
		return 0, time.Time{}, false
	}
	return d.DiscountPercent, d.DiscountExpiresAt, true
}

func (s *stubCategories) markLoaded() {
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
}

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, cats *stubCategories, taxBps int) *Engine {
	t.Helper()
	eng, err := NewEngine(EngineConfig{
		Categories: cats,
		Logger:     zerolog.Nop(),
		TaxBps:     taxBps,
		Currency:   "USD",
		Now:        func() time.Time { return baseTime },
	})
	require.NoError(t, err)
	return eng
}

func loadedCategories() *stubCategories {
	cats := &stubCategories{
		discounts: map[string]catalog.CategoryDiscount{
			"beverages": {
				Title:             "beverages",
				DiscountPercent:   25,
				DiscountExpiresAt: baseTime.Add(24 * time.Hour),
			},
		},
	}
	cats.markLoaded()
	return cats
}

func product(id string, price pricing.Money) catalog.Product {
	return catalog.Product{
		ID:                id,
		Title:             "item " + id,
		Category:          "beverages",
		Price:             price,
		DiscountPercent:   0,
		DiscountExpiresAt: baseTime.Add(-time.Hour),
	}
}

func TestEngineRejectsPickUntilCatalogLoads(t *testing.T) {
	cats := &stubCategories{discounts: map[string]catalog.CategoryDiscount{}}
	eng := newTestEngine(t, cats, 1000)

	_, err := eng.Pick(context.Background(), product("p1", 10_000))
	require.ErrorIs(t, err, ErrCatalogNotReady)
	require.False(t, eng.Ready())

	cats.markLoaded()
	require.True(t, eng.Ready())
	snap, err := eng.Pick(context.Background(), product("p1", 10_000))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
}

func TestEnginePickFreezesPricing(t *testing.T) {
	cats := loadedCategories()
	clock := baseTime
	eng, err := NewEngine(EngineConfig{
		Categories: cats,
		Logger:     zerolog.Nop(),
		TaxBps:     0,
		Currency:   "USD",
		Now:        func() time.Time { return clock },
	})
	require.NoError(t, err)

	p := catalog.Product{
		ID:                "p1",
		Title:             "cold brew",
		Category:          "beverages",
		Price:             10_000,
		DiscountPercent:   50,
		DiscountExpiresAt: baseTime.Add(time.Minute),
	}
	snap, err := eng.Pick(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(5_000), snap.Items[0].UnitPrice)
	require.Equal(t, 50, snap.Items[0].DiscountPercent)

	// The product window lapses; repeat picks keep the original unit price.
	clock = baseTime.Add(time.Hour)
	snap, err = eng.Pick(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	require.Equal(t, 2, snap.Items[0].Qty)
	require.Equal(t, pricing.Money(5_000), snap.Items[0].UnitPrice)
	require.Equal(t, pricing.Money(10_000), snap.Items[0].Total)
}

func TestEnginePickUsesCategoryFallback(t *testing.T) {
	cats := loadedCategories()
	eng := newTestEngine(t, cats, 0)

	snap, err := eng.Pick(context.Background(), product("p1", 8_000))
	require.NoError(t, err)
	require.Equal(t, 25, snap.Items[0].DiscountPercent)
	require.Equal(t, pricing.Money(6_000), snap.Items[0].UnitPrice)
}

func TestEngineUnknownCategoryGetsNoDiscount(t *testing.T) {
	cats := loadedCategories()
	eng := newTestEngine(t, cats, 0)

	p := product("p1", 8_000)
	p.Category = "hardware"
	snap, err := eng.Pick(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, 0, snap.Items[0].DiscountPercent)
	require.Equal(t, pricing.Money(8_000), snap.Items[0].UnitPrice)
}

func TestEngineLineOpsRequireKnownID(t *testing.T) {
	eng := newTestEngine(t, loadedCategories(), 0)
	ctx := context.Background()

	_, err := eng.Increase(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNoSuchLine)
	_, err = eng.Decrease(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNoSuchLine)
	_, err = eng.Remove(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNoSuchLine)
}

func TestEngineDecreaseFloorsAtOne(t *testing.T) {
	eng := newTestEngine(t, loadedCategories(), 0)
	ctx := context.Background()

	snap, err := eng.Pick(ctx, product("p1", 1_000))
	require.NoError(t, err)
	lineID := uuid.MustParse(snap.Items[0].ID)

	snap, err = eng.Decrease(ctx, lineID)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Items[0].Qty)

	snap, err = eng.Increase(ctx, lineID)
	require.NoError(t, err)
	require.Equal(t, 2, snap.Items[0].Qty)
	snap, err = eng.Decrease(ctx, lineID)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Items[0].Qty)
}

func TestEngineRemoveKeepsRemainingIDs(t *testing.T) {
	eng := newTestEngine(t, loadedCategories(), 0)
	ctx := context.Background()

	snap, err := eng.Pick(ctx, product("p1", 1_000))
	require.NoError(t, err)
	firstID := snap.Items[0].ID
	snap, err = eng.Pick(ctx, product("p2", 2_000))
	require.NoError(t, err)
	secondID := snap.Items[1].ID
	snap, err = eng.Pick(ctx, product("p3", 3_000))
	require.NoError(t, err)
	thirdID := snap.Items[2].ID

	snap, err = eng.Remove(ctx, uuid.MustParse(secondID))
	require.NoError(t, err)
	require.Len(t, snap.Items, 2)
	require.Equal(t, firstID, snap.Items[0].ID)
	require.Equal(t, thirdID, snap.Items[1].ID)

	// The removed product can be rung up again under a fresh id.
	snap, err = eng.Pick(ctx, product("p2", 2_000))
	require.NoError(t, err)
	require.Len(t, snap.Items, 3)
	require.NotEqual(t, secondID, snap.Items[2].ID)
}

func TestEngineTotalsBackTaxOutOfGrandTotal(t *testing.T) {
	eng := newTestEngine(t, loadedCategories(), 1000)
	ctx := context.Background()

	p := product("p1", 11_000)
	p.Category = "hardware"
	snap, err := eng.Pick(ctx, p)
	require.NoError(t, err)

	require.Equal(t, pricing.Money(11_000), snap.Totals.GrandTotal)
	require.Equal(t, pricing.Money(1_100), snap.Totals.Tax)
	require.Equal(t, pricing.Money(9_900), snap.Totals.Subtotal)
	require.Equal(t, snap.Totals.GrandTotal, snap.Totals.Subtotal+snap.Totals.Tax)
}

func TestEngineSetTaxRate(t *testing.T) {
	eng := newTestEngine(t, loadedCategories(), 0)
	ctx := context.Background()

	p := product("p1", 10_000)
	p.Category = "hardware"
	_, err := eng.Pick(ctx, p)
	require.NoError(t, err)

	snap, err := eng.SetTaxRate(ctx, 2000)
	require.NoError(t, err)
	require.Equal(t, 2000, snap.TaxBps)
	require.Equal(t, pricing.Money(2_000), snap.Totals.Tax)

	_, err = eng.SetTaxRate(ctx, -1)
	require.ErrorIs(t, err, ErrInvalidTaxRate)
	_, err = eng.SetTaxRate(ctx, 10001)
	require.ErrorIs(t, err, ErrInvalidTaxRate)
}

func TestEngineCheckoutClearsCart(t *testing.T) {
	eng := newTestEngine(t, loadedCategories(), 1000)
	ctx := context.Background()

	_, err := eng.Checkout(ctx)
	require.ErrorIs(t, err, ErrEmpty)

	_, err = eng.Pick(ctx, product("p1", 4_000))
	require.NoError(t, err)
	_, err = eng.Pick(ctx, product("p2", 6_000))
	require.NoError(t, err)

	receipt, err := eng.Checkout(ctx)
	require.NoError(t, err)
	require.Len(t, receipt.Items, 2)
	require.True(t, receipt.CheckoutEnabled)
	require.NotZero(t, receipt.Totals.GrandTotal)

	after := eng.Snapshot()
	require.Empty(t, after.Items)
	require.False(t, after.CheckoutEnabled)
	require.Zero(t, after.Totals.GrandTotal)
}

func TestEngineCancelClearsWithoutError(t *testing.T) {
	eng := newTestEngine(t, loadedCategories(), 0)
	ctx := context.Background()

	_, err := eng.Pick(ctx, product("p1", 4_000))
	require.NoError(t, err)

	snap := eng.Cancel(ctx)
	require.Empty(t, snap.Items)
	require.False(t, snap.CheckoutEnabled)

	// Cancel on an already empty cart is a no-op.
	snap = eng.Cancel(ctx)
	require.Empty(t, snap.Items)
}

type captureNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, e events.Event) error {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	return nil
}

func (c *captureNotifier) topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Topic)
	}
	return out
}

func TestEngineEmitsCartEvents(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	capture := &captureNotifier{}
	bus.Subscribe(capture)

	cats := loadedCategories()
	eng, err := NewEngine(EngineConfig{
		Categories: cats,
		Bus:        bus,
		Logger:     zerolog.Nop(),
		TaxBps:     0,
		Currency:   "USD",
		Now:        func() time.Time { return baseTime },
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = eng.Pick(ctx, product("p1", 5_000))
	require.NoError(t, err)
	_, err = eng.Checkout(ctx)
	require.NoError(t, err)

	require.Equal(t, []string{
		events.TopicCartUpdated,
		events.TopicCartCheckedOut,
		events.TopicCartUpdated,
	}, capture.topics())

	capture.mu.Lock()
	first, ok := capture.events[0].Payload.(events.CartUpdate)
	capture.mu.Unlock()
	require.True(t, ok)
	require.Equal(t, 1, first.Lines)
	require.Equal(t, int64(5_000), first.GrandTotal)
	require.True(t, first.CheckoutEnabled)
}
