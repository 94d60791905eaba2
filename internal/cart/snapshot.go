package cart

import "github.com/noah-isme/pos-checkout/internal/pricing"

// LineView is the externally visible shape of one cart line.
type LineView struct {
	ID              string        `json:"id"`
	ProductID       string        `json:"productId"`
	Title           string        `json:"title"`
	Category        string        `json:"category"`
	BasePrice       pricing.Money `json:"basePrice"`
	UnitPrice       pricing.Money `json:"unitPrice"`
	DiscountPercent int           `json:"discountPercent"`
	Qty             int           `json:"qty"`
	Total           pricing.Money `json:"total"`
}

// Snapshot is the full cart state the presentation layer observes after
// every operation: ordered lines, derived totals, and whether checkout and
// cancel are currently enabled.
type Snapshot struct {
	Items           []LineView     `json:"items"`
	Totals          pricing.Totals `json:"totals"`
	TaxBps          int            `json:"taxBps"`
	Currency        string         `json:"currency"`
	CheckoutEnabled bool           `json:"checkoutEnabled"`
}

func (e *Engine) snapshotLocked() Snapshot {
	items := make([]LineView, 0, len(e.lines))
	for _, line := range e.lines {
		items = append(items, LineView{
			ID:              line.ID.String(),
			ProductID:       line.ProductID,
			Title:           line.Title,
			Category:        line.Category,
			BasePrice:       line.BasePrice,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
			Qty:             line.Qty,
			Total:           line.Total,
		})
	}
	return Snapshot{
		Items:           items,
		Totals:          e.totalsLocked(),
		TaxBps:          e.taxBps,
		Currency:        e.currency,
		CheckoutEnabled: len(e.lines) > 0,
	}
}
