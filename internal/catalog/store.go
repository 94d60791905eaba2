package catalog

import "sync"

// Store indexes the session's products by id so the API can turn a picked
// product id back into the full record handed to the cart engine.
type Store struct {
	mu       sync.RWMutex
	products map[string]Product
	loaded   bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{products: make(map[string]Product)}
}

// Load indexes the fetched products and marks the store ready.
func (s *Store) Load(products []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		s.products[p.ID] = p
	}
	s.loaded = true
}

// Get returns the product for the given id.
func (s *Store) Get(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// Loaded reports whether the session-start fetch has completed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Len returns the number of indexed products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}
