// Package order converts carts into immutable order records with
// point-in-time price snapshots, backed by an atomic stock reservation.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/knagata/storefront/internal/domain/user"
)

var (
	// ErrEmptyCart is returned when placing an order from a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMissingAddress is returned when the shipping address is absent or
	// lacks required fields.
	ErrMissingAddress = errors.New("shipping address is required")
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrForbidden is returned when an order belongs to a different user
	// than the requester.
	ErrForbidden = errors.New("order belongs to another user")
)

// Status is an order's lifecycle state. Orders are created confirmed and
// never transition further.
type Status string

// StatusConfirmed is the only status an order can have.
const StatusConfirmed Status = "confirmed"

// Line is one product in an order. ProductName and UnitPrice are
// snapshots taken at order time; later catalog changes never affect them.
type Line struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Order is an immutable record of a completed purchase. Total always
// equals the sum of line subtotals.
type Order struct {
	ID              string
	UserID          string
	OrderedAt       time.Time
	Status          Status
	ShippingAddress user.Address
	Lines           []Line
	Total           decimal.Decimal
}

// Summary is the reduced order shape for history listings.
type Summary struct {
	ID        string
	Total     decimal.Decimal
	Status    Status
	LineCount int
	OrderedAt time.Time
}

// Summarize returns the listing shape of the order.
func (o *Order) Summarize() Summary {
	return Summary{
		ID:        o.ID,
		Total:     o.Total,
		Status:    o.Status,
		LineCount: len(o.Lines),
		OrderedAt: o.OrderedAt,
	}
}

// Repository persists orders. Create assigns the next sequential,
// human-readable order id before storing the record.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}
