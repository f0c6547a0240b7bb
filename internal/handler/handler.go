// Package handler maps HTTP requests to the storefront's domain
// services and domain errors to transport responses. It owns no business
// logic.
package handler

import (
	"net/http"

	"github.com/knagata/storefront/internal/domain/cart"
	"github.com/knagata/storefront/internal/domain/catalog"
	"github.com/knagata/storefront/internal/domain/order"
	"github.com/knagata/storefront/internal/domain/session"
	"github.com/knagata/storefront/internal/domain/user"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative product image paths in
	// responses. When empty, paths are returned as stored.
	ImageBaseURL string
}

// Handler wires the domain services to HTTP routes.
type Handler struct {
	cfg      Config
	users    *user.Service
	sessions session.Registry
	catalog  catalog.Store
	carts    *cart.Service
	orders   *order.Service
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	users *user.Service,
	sessions session.Registry,
	cat catalog.Store,
	carts *cart.Service,
	orders *order.Service,
) *Handler {
	return &Handler{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		catalog:  cat,
		carts:    carts,
		orders:   orders,
	}
}

// Register mounts all API routes on mux. Cart and order routes require a
// valid bearer token.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.Handle("GET /api/auth/me", h.requireAuth(h.currentUser))

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)

	mux.Handle("GET /api/cart", h.requireAuth(h.viewCart))
	mux.Handle("POST /api/cart/items", h.requireAuth(h.addToCart))
	mux.Handle("PUT /api/cart/items/{productId}", h.requireAuth(h.updateCartItem))
	mux.Handle("DELETE /api/cart/items/{productId}", h.requireAuth(h.removeCartItem))
	mux.Handle("DELETE /api/cart", h.requireAuth(h.clearCart))

	mux.Handle("GET /api/orders", h.requireAuth(h.listOrders))
	mux.Handle("POST /api/orders", h.requireAuth(h.placeOrder))
	mux.Handle("GET /api/orders/{id}", h.requireAuth(h.getOrder))
}
