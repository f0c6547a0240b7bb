// Package cart implements the per-user shopping cart: an ordered set of
// product lines with stock-aware mutation and a catalog-joined view.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/knagata/storefront/internal/domain/catalog"
)

// ErrInvalidQuantity is returned for quantities outside the valid range.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// Line is one product entry in a cart. A cart holds at most one line per
// product id.
type Line struct {
	ProductID string
	Quantity  int
	AddedAt   time.Time
}

// Cart is a user's mutable shopping cart. It is created lazily on first
// access and lives for the process lifetime.
type Cart struct {
	UserID    string
	Lines     []Line
	UpdatedAt time.Time
}

// Line returns a pointer to the line for the given product, or nil.
func (c *Cart) Line(productID string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

// RemoveLine deletes the line for the given product if present. It
// reports whether a line was removed.
func (c *Cart) RemoveLine(productID string) bool {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// Repository provides access to per-user carts.
//
// Update runs fn with the user's live cart while holding that user's cart
// lock, so all mutations of one user's cart are serialized. If fn returns
// an error the error is propagated and the cart is expected to be left
// unmodified by fn.
type Repository interface {
	Update(ctx context.Context, userID string, fn func(*Cart) error) error
	// Get returns a copy of the user's cart, creating an empty one on
	// first access.
	Get(ctx context.Context, userID string) (*Cart, error)
}

// ViewLine is a cart line joined against the live catalog.
type ViewLine struct {
	ProductID string
	Product   catalog.Product
	Quantity  int
	Subtotal  decimal.Decimal
	AddedAt   time.Time
}

// View is the enriched cart presented to clients. Subtotals and the total
// are computed from current catalog prices on every call, so they can
// shift between views if prices change.
type View struct {
	Lines     []ViewLine
	Total     decimal.Decimal
	ItemCount int
	UpdatedAt time.Time
}
