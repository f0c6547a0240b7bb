package memory

import (
	"context"
	"sync"
	"time"

	"github.com/knagata/storefront/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// userCart pairs a cart with its per-user lock. The lock serializes every
// mutation of one user's cart, including the cart-to-order transition.
type userCart struct {
	mu   sync.Mutex
	cart cart.Cart
}

// CartRepository holds per-user carts, created lazily on first access.
type CartRepository struct {
	mu    sync.Mutex
	carts map[string]*userCart
}

// NewCartRepository creates an empty repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]*userCart)}
}

func (r *CartRepository) userCart(userID string) *userCart {
	r.mu.Lock()
	defer r.mu.Unlock()

	uc, ok := r.carts[userID]
	if !ok {
		uc = &userCart{cart: cart.Cart{UserID: userID, UpdatedAt: time.Now()}}
		r.carts[userID] = uc
	}
	return uc
}

// Update runs fn with the user's live cart under the per-user lock.
// Lock order is always cart lock first, then (inside fn) any catalog
// lock; the catalog never takes cart locks, so there is no cycle.
func (r *CartRepository) Update(_ context.Context, userID string, fn func(*cart.Cart) error) error {
	uc := r.userCart(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return fn(&uc.cart)
}

// Get returns a copy of the user's cart.
func (r *CartRepository) Get(_ context.Context, userID string) (*cart.Cart, error) {
	uc := r.userCart(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()

	cp := uc.cart
	cp.Lines = append([]cart.Line(nil), uc.cart.Lines...)
	return &cp, nil
}
