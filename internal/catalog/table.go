package catalog

import (
	"sync"
	"time"
)

// Table holds the session's category discounts keyed by title. It starts
// unloaded; pricing must not run against it until the first successful load
// completes. After that the table is append-only for the session lifetime.
type Table struct {
	mu      sync.RWMutex
	entries map[string]CategoryDiscount
	loaded  bool
}

// NewTable returns an empty, unloaded table.
func NewTable() *Table {
	return &Table{entries: make(map[string]CategoryDiscount)}
}

// Load merges the fetched discounts and marks the table ready. Existing
// entries are kept; a checkout session never re-prices mid-flight.
func (t *Table) Load(discounts []CategoryDiscount) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, d := range discounts {
		if d.Title == "" {
			continue
		}
		if _, exists := t.entries[d.Title]; exists {
			continue
		}
		t.entries[d.Title] = d
	}
	t.loaded = true
}

// Loaded reports whether the session-start fetch has completed.
func (t *Table) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loaded
}

// CategoryDiscount implements pricing.CategoryLookup. A missing title
// reports ok=false; the resolver treats that as zero discount.
func (t *Table) CategoryDiscount(title string) (int, time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[title]
	if !ok {
		return 0, time.Time{}, false
	}
	return entry.DiscountPercent, entry.DiscountExpiresAt, true
}

// Len returns the number of known categories.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
