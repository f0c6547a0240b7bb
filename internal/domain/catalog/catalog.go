// Package catalog defines the product catalog: product and category
// records, the store contract, and the typed errors stock validation
// reports.
package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Price is
// expressed in whole smallest currency units. Stock is the only field
// that changes after load, and only through Store.Reserve, Store.Release
// and Store.SetStock.
type Product struct {
	ID          string
	Name        string
	Brand       string
	CategoryID  string
	Price       decimal.Decimal
	Stock       int
	Rating      float64
	Description string
	ImageURL    string
	Specs       map[string]string
}

// Category groups products for browsing. Immutable after load.
type Category struct {
	ID   string
	Name string
}

// Demand names a quantity of a single product to reserve or release.
type Demand struct {
	ProductID string
	Quantity  int
}

// InsufficientStockError reports a stock check failure, carrying both the
// requested and the available quantity.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// NotFoundError indicates a demand referenced a product that does not exist.
type NotFoundError struct {
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Store provides access to the product catalog.
//
// Reserve and Release are the only paths that move stock during order
// placement. Reserve validates every demand before mutating anything, so a
// failed reservation leaves the catalog exactly as it was.
type Store interface {
	// Get returns the product with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Product, error)
	// List returns a snapshot of all products in load order.
	List(ctx context.Context) ([]Product, error)
	// Categories returns all categories in load order.
	Categories(ctx context.Context) ([]Category, error)
	// SetStock unconditionally overwrites a product's stock level.
	// Precondition: the product exists. Unknown ids are a no-op, not an
	// error; the caller is expected to have validated existence.
	SetStock(ctx context.Context, id string, stock int) error
	// Reserve atomically validates and decrements stock for every demand.
	// On success it returns point-in-time product snapshots in demand
	// order. On failure (*NotFoundError or *InsufficientStockError for the
	// first offending demand) no stock is changed.
	Reserve(ctx context.Context, demands []Demand) ([]Product, error)
	// Release returns previously reserved stock. It is the compensating
	// action for Reserve and must only be called with demands that were
	// successfully reserved.
	Release(ctx context.Context, demands []Demand) error
}
