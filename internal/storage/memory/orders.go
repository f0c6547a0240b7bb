package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/knagata/storefront/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository stores immutable order records and assigns sequential,
// human-readable ids of the form "ord-001".
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
	byUser map[string][]string
	seq    int
}

// NewOrderRepository creates an empty repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*order.Order),
		byUser: make(map[string][]string),
	}
}

// Create assigns the next sequential id to o and stores a copy.
func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	o.ID = fmt.Sprintf("ord-%03d", r.seq)

	cp := *o
	cp.Lines = append([]order.Line(nil), o.Lines...)
	r.orders[cp.ID] = &cp
	r.byUser[cp.UserID] = append(r.byUser[cp.UserID], cp.ID)
	return nil
}

// Get returns a copy of the order with the given id.
func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	cp.Lines = append([]order.Line(nil), o.Lines...)
	return &cp, nil
}

// ListByUser returns copies of the user's orders in placement order.
func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	out := make([]order.Order, 0, len(ids))
	for _, id := range ids {
		o := r.orders[id]
		cp := *o
		cp.Lines = append([]order.Line(nil), o.Lines...)
		out = append(out, cp)
	}
	return out, nil
}
