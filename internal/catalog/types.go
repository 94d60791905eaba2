package catalog

import (
	"time"

	"github.com/noah-isme/pos-checkout/internal/pricing"
)

// Product is a catalog record. Read-only to the checkout engine; prices are
// minor units converted from the service's decimal amounts.
type Product struct {
	ID                string
	Title             string
	Category          string
	Price             pricing.Money
	DiscountPercent   int
	DiscountExpiresAt time.Time
}

// Offer maps the product onto the discount resolver's input.
func (p Product) Offer() pricing.Offer {
	return pricing.Offer{
		BasePrice:         p.Price,
		Category:          p.Category,
		DiscountPercent:   p.DiscountPercent,
		DiscountExpiresAt: p.DiscountExpiresAt,
	}
}

// CategoryDiscount is one category-level promotion window, keyed by title.
type CategoryDiscount struct {
	Title             string
	DiscountPercent   int
	DiscountExpiresAt time.Time
}
