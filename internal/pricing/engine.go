package pricing

import "time"

// Money represents a monetary value stored in minor units.
type Money = int64

// DiscountSource identifies where an applied discount came from.
type DiscountSource string

const (
	// SourceNone means the product sells at its base price.
	SourceNone DiscountSource = "none"
	// SourceProduct means the product's own promotion applied.
	SourceProduct DiscountSource = "product"
	// SourceCategory means the category-level promotion applied.
	SourceCategory DiscountSource = "category"
)

// CategoryLookup resolves the current category-level promotion by title.
// A miss reports ok=false and never fails.
type CategoryLookup interface {
	CategoryDiscount(title string) (percent int, expiresAt time.Time, ok bool)
}

// Offer is the pricing-relevant slice of a catalog product.
type Offer struct {
	BasePrice         Money
	Category          string
	DiscountPercent   int
	DiscountExpiresAt time.Time
}

// Applied is the outcome of discount resolution for a single product.
type Applied struct {
	UnitPrice Money
	Percent   int
	Source    DiscountSource
}

// Resolve decides which discount applies to the offer at the given instant.
// An unexpired product-level window always wins over the category window,
// regardless of magnitude. A category missing from the lookup degrades to
// zero discount; stale category caches must never fail a sale.
func Resolve(offer Offer, categories CategoryLookup, now time.Time) Applied {
	percent := 0
	source := SourceNone

	switch {
	case !offer.DiscountExpiresAt.Before(now):
		percent = offer.DiscountPercent
		source = SourceProduct
	case categories != nil:
		if catPercent, expiresAt, ok := categories.CategoryDiscount(offer.Category); ok && !expiresAt.Before(now) {
			percent = catPercent
			source = SourceCategory
		}
	}

	percent = clampPercent(percent)
	if percent == 0 {
		// No-op multiply would only invite rounding noise.
		return Applied{UnitPrice: offer.BasePrice, Percent: 0, Source: SourceNone}
	}
	discount := (offer.BasePrice * Money(percent)) / 100
	return Applied{UnitPrice: offer.BasePrice - discount, Percent: percent, Source: source}
}

// Item describes a line item used for totals calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Totals aggregates the computed receipt components. GrandTotal is the
// tax-inclusive sum of line totals; Subtotal is what remains after the tax
// portion is backed out. Subtotal+Tax == GrandTotal by construction.
type Totals struct {
	Subtotal   Money `json:"subtotal"`
	Tax        Money `json:"tax"`
	GrandTotal Money `json:"grandTotal"`
}

// ComputeTotals folds the tax out of the summed line totals. The tax rate
// is expressed in basis points (10% == 1000).
func ComputeTotals(items []Item, taxBps int) Totals {
	var grand Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		grand += Money(it.Qty) * it.UnitPrice
	}
	if taxBps < 0 {
		taxBps = 0
	}
	tax := (grand * Money(taxBps)) / 10000
	return Totals{
		Subtotal:   grand - tax,
		Tax:        tax,
		GrandTotal: grand,
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
