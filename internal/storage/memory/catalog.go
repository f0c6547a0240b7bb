// Package memory implements every store contract in process memory.
// State is seeded from fixtures at startup and lives for the process
// lifetime; nothing is persisted.
package memory

import (
	"context"
	"sync"

	"github.com/knagata/storefront/internal/domain/catalog"
)

var _ catalog.Store = (*CatalogStore)(nil)

// CatalogStore holds products and categories. Products are keyed by id
// for O(1) lookup; load order is preserved for listings. All stock
// movement happens under the store's write lock, which is what makes
// Reserve atomic across multiple products.
type CatalogStore struct {
	mu         sync.RWMutex
	products   map[string]*catalog.Product
	loadOrder  []string
	categories []catalog.Category
}

// NewCatalogStore builds a store from fixture data.
func NewCatalogStore(products []catalog.Product, categories []catalog.Category) *CatalogStore {
	s := &CatalogStore{
		products:   make(map[string]*catalog.Product, len(products)),
		loadOrder:  make([]string, 0, len(products)),
		categories: append([]catalog.Category(nil), categories...),
	}
	for i := range products {
		p := products[i]
		s.products[p.ID] = &p
		s.loadOrder = append(s.loadOrder, p.ID)
	}
	return s
}

// Get returns a copy of the product with the given id.
func (s *CatalogStore) Get(_ context.Context, id string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// List returns a snapshot of all products in load order.
func (s *CatalogStore) List(_ context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Product, 0, len(s.loadOrder))
	for _, id := range s.loadOrder {
		out = append(out, *s.products[id])
	}
	return out, nil
}

// Categories returns all categories in load order.
func (s *CatalogStore) Categories(_ context.Context) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]catalog.Category(nil), s.categories...), nil
}

// SetStock overwrites a product's stock level. Unknown ids are a no-op;
// callers are expected to have validated existence first.
func (s *CatalogStore) SetStock(_ context.Context, id string, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.products[id]; ok {
		p.Stock = stock
	}
	return nil
}

// Reserve validates every demand under the write lock, then decrements
// stock for all of them. A failed validation returns before any mutation,
// so partial decrements are impossible. Snapshots of the reserved
// products are returned in demand order.
func (s *CatalogStore) Reserve(_ context.Context, demands []catalog.Demand) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range demands {
		p, ok := s.products[d.ProductID]
		if !ok {
			return nil, &catalog.NotFoundError{ProductID: d.ProductID}
		}
		if p.Stock < d.Quantity {
			return nil, &catalog.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   d.Quantity,
				Available:   p.Stock,
			}
		}
	}

	snapshots := make([]catalog.Product, len(demands))
	for i, d := range demands {
		p := s.products[d.ProductID]
		p.Stock -= d.Quantity
		snapshots[i] = *p
	}
	return snapshots, nil
}

// Release returns previously reserved stock. Demands for unknown ids are
// skipped; products are never deleted, so that only happens on misuse.
func (s *CatalogStore) Release(_ context.Context, demands []catalog.Demand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range demands {
		if p, ok := s.products[d.ProductID]; ok {
			p.Stock += d.Quantity
		}
	}
	return nil
}
