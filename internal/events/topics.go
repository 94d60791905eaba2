package events

// Topic constants for domain events emitted during a checkout session.
const (
	TopicCartUpdated    = "cart.updated"
	TopicCartCheckedOut = "cart.checked_out"
	TopicCatalogLoaded  = "catalog.loaded"
)

// CartUpdate is the payload carried by cart topics.
type CartUpdate struct {
	Lines           int
	GrandTotal      int64
	CheckoutEnabled bool
}

// CatalogLoad is the payload carried by TopicCatalogLoaded.
type CatalogLoad struct {
	Products   int
	Categories int
}
