package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-checkout/internal/catalog"
	"github.com/noah-isme/pos-checkout/internal/events"
	"github.com/noah-isme/pos-checkout/internal/obs"
	"github.com/noah-isme/pos-checkout/internal/pricing"
)

var (
	// ErrNoSuchLine is returned for operations addressing an unknown line id.
	ErrNoSuchLine = errors.New("cart: no such line")
	// ErrEmpty is returned when checkout is attempted on an empty cart.
	ErrEmpty = errors.New("cart: cart is empty")
	// ErrCatalogNotReady gates picks until the category table has loaded.
	ErrCatalogNotReady = errors.New("cart: category table not loaded")
	// ErrInvalidTaxRate rejects tax rates outside 0..10000 basis points.
	ErrInvalidTaxRate = errors.New("cart: invalid tax rate")
)

// Line is one product entry in the cart. UnitPrice and DiscountPercent are
// fixed when the line is created; quantity changes never re-resolve them.
// The sale price is locked at the moment the product was rung up.
type Line struct {
	ID              uuid.UUID
	ProductID       string
	Title           string
	Category        string
	BasePrice       pricing.Money
	UnitPrice       pricing.Money
	DiscountPercent int
	DiscountSource  pricing.DiscountSource
	Qty             int
	Total           pricing.Money
}

// CategorySource is the slice of the catalog the engine prices against.
type CategorySource interface {
	pricing.CategoryLookup
	Loaded() bool
}

// EngineConfig groups engine dependencies.
type EngineConfig struct {
	Categories CategorySource
	Bus        *events.Bus
	Logger     zerolog.Logger
	TaxBps     int
	Currency   string
	Now        func() time.Time
}

// Engine owns the checkout session's cart: an ordered line sequence, unique
// by product id, addressed externally through opaque line ids. All
// operations are serialised; totals are recomputed before a mutation returns.
type Engine struct {
	mu         sync.Mutex
	categories CategorySource
	bus        *events.Bus
	logger     zerolog.Logger
	now        func() time.Time
	currency   string

	lines     []*Line
	byID      map[uuid.UUID]*Line
	byProduct map[string]*Line
	taxBps    int
}

// NewEngine constructs an empty cart engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Categories == nil {
		return nil, errors.New("cart: category source is required")
	}
	if cfg.TaxBps < 0 || cfg.TaxBps > 10000 {
		return nil, ErrInvalidTaxRate
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		categories: cfg.Categories,
		bus:        cfg.Bus,
		logger:     cfg.Logger,
		now:        now,
		currency:   cfg.Currency,
		byID:       make(map[uuid.UUID]*Line),
		byProduct:  make(map[string]*Line),
		taxBps:     cfg.TaxBps,
	}, nil
}

// Pick adds the product to the cart. A product already present has its
// quantity incremented; pricing is not re-resolved. A new product gets the
// discount resolver run exactly once, against the clock at this instant.
func (e *Engine) Pick(ctx context.Context, product catalog.Product) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.categories.Loaded() {
		e.record("pick", "not_ready")
		return Snapshot{}, ErrCatalogNotReady
	}

	if line, ok := e.byProduct[product.ID]; ok {
		line.Qty++
		line.Total = pricing.Money(line.Qty) * line.UnitPrice
		e.record("pick", "ok")
		return e.publishLocked(ctx, events.TopicCartUpdated), nil
	}

	applied := pricing.Resolve(product.Offer(), e.categories, e.now())
	if obs.DiscountResolutionsTotal != nil {
		obs.DiscountResolutionsTotal.WithLabelValues(string(applied.Source)).Inc()
	}
	line := &Line{
		ID:              uuid.New(),
		ProductID:       product.ID,
		Title:           product.Title,
		Category:        product.Category,
		BasePrice:       product.Price,
		UnitPrice:       applied.UnitPrice,
		DiscountPercent: applied.Percent,
		DiscountSource:  applied.Source,
		Qty:             1,
		Total:           applied.UnitPrice,
	}
	e.lines = append(e.lines, line)
	e.byID[line.ID] = line
	e.byProduct[line.ProductID] = line
	e.logger.Debug().
		Str("product_id", line.ProductID).
		Str("discount_source", string(line.DiscountSource)).
		Int("discount_percent", line.DiscountPercent).
		Msg("line added")
	e.record("pick", "ok")
	return e.publishLocked(ctx, events.TopicCartUpdated), nil
}

// Increase increments the quantity of the addressed line.
func (e *Engine) Increase(ctx context.Context, lineID uuid.UUID) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	line, ok := e.byID[lineID]
	if !ok {
		e.record("increase", "no_such_line")
		return Snapshot{}, ErrNoSuchLine
	}
	line.Qty++
	line.Total = pricing.Money(line.Qty) * line.UnitPrice
	e.record("increase", "ok")
	return e.publishLocked(ctx, events.TopicCartUpdated), nil
}

// Decrease decrements the quantity of the addressed line, floored at 1.
// Dropping to zero is reserved for Remove.
func (e *Engine) Decrease(ctx context.Context, lineID uuid.UUID) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	line, ok := e.byID[lineID]
	if !ok {
		e.record("decrease", "no_such_line")
		return Snapshot{}, ErrNoSuchLine
	}
	if line.Qty > 1 {
		line.Qty--
		line.Total = pricing.Money(line.Qty) * line.UnitPrice
	}
	e.record("decrease", "ok")
	return e.publishLocked(ctx, events.TopicCartUpdated), nil
}

// Remove deletes the addressed line; later lines keep their ids.
func (e *Engine) Remove(ctx context.Context, lineID uuid.UUID) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	line, ok := e.byID[lineID]
	if !ok {
		e.record("remove", "no_such_line")
		return Snapshot{}, ErrNoSuchLine
	}
	for i, candidate := range e.lines {
		if candidate.ID == line.ID {
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
			break
		}
	}
	delete(e.byID, line.ID)
	delete(e.byProduct, line.ProductID)
	e.record("remove", "ok")
	return e.publishLocked(ctx, events.TopicCartUpdated), nil
}

// Cancel clears the cart in one step. No intermediate totals are published.
func (e *Engine) Cancel(ctx context.Context) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clearLocked()
	e.record("cancel", "ok")
	return e.publishLocked(ctx, events.TopicCartUpdated)
}

// Checkout returns the final snapshot for the receipt step and empties the
// cart. Only reachable from a non-empty cart.
func (e *Engine) Checkout(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.lines) == 0 {
		e.record("checkout", "empty")
		return Snapshot{}, ErrEmpty
	}
	receipt := e.snapshotLocked()
	e.clearLocked()
	e.record("checkout", "ok")
	if obs.CheckoutGrandTotals != nil {
		obs.CheckoutGrandTotals.Observe(float64(receipt.Totals.GrandTotal))
	}
	e.emitLocked(ctx, events.TopicCartCheckedOut)
	e.publishLocked(ctx, events.TopicCartUpdated)
	return receipt, nil
}

// SetTaxRate changes the tax rate (basis points) and recomputes totals.
func (e *Engine) SetTaxRate(ctx context.Context, taxBps int) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if taxBps < 0 || taxBps > 10000 {
		e.record("set_tax_rate", "invalid")
		return Snapshot{}, ErrInvalidTaxRate
	}
	e.taxBps = taxBps
	e.record("set_tax_rate", "ok")
	return e.publishLocked(ctx, events.TopicCartUpdated), nil
}

// Snapshot returns the current cart state without mutating anything.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Ready reports whether picks are currently allowed.
func (e *Engine) Ready() bool {
	return e.categories.Loaded()
}

func (e *Engine) clearLocked() {
	e.lines = nil
	e.byID = make(map[uuid.UUID]*Line)
	e.byProduct = make(map[string]*Line)
}

func (e *Engine) publishLocked(ctx context.Context, topic string) Snapshot {
	snap := e.snapshotLocked()
	e.emitLocked(ctx, topic)
	return snap
}

func (e *Engine) emitLocked(ctx context.Context, topic string) {
	if e.bus == nil {
		return
	}
	totals := e.totalsLocked()
	// Notifier failures are logged by the bus; mutations never roll back.
	_, _ = e.bus.Emit(ctx, topic, events.CartUpdate{
		Lines:           len(e.lines),
		GrandTotal:      totals.GrandTotal,
		CheckoutEnabled: len(e.lines) > 0,
	})
}

func (e *Engine) totalsLocked() pricing.Totals {
	items := make([]pricing.Item, 0, len(e.lines))
	for _, line := range e.lines {
		items = append(items, pricing.Item{Qty: line.Qty, UnitPrice: line.UnitPrice})
	}
	return pricing.ComputeTotals(items, e.taxBps)
}

func (e *Engine) record(op, result string) {
	if obs.CartOpsTotal == nil {
		return
	}
	obs.CartOpsTotal.WithLabelValues(op, result).Inc()
}
