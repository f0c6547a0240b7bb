package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/knagata/storefront/internal/domain/cart"
	"github.com/knagata/storefront/internal/domain/catalog"
	"github.com/knagata/storefront/internal/domain/user"
)

// PlaceResult holds the client-facing output of a successfully placed order.
type PlaceResult struct {
	OrderID   string
	Total     decimal.Decimal
	Status    Status
	OrderedAt time.Time
}

// Service encapsulates order placement and retrieval.
type Service struct {
	carts    cart.Repository
	products catalog.Store
	orders   Repository
	now      func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(carts cart.Repository, products catalog.Store, orders Repository) *Service {
	return &Service{
		carts:    carts,
		products: products,
		orders:   orders,
		now:      time.Now,
	}
}

// Place converts the user's cart into an order.
//
// The whole transition runs under the user's cart lock, so no concurrent
// cart mutation can interleave with it. Stock for every line is validated
// and decremented in one atomic reservation: if any line's product is
// missing or short on stock, no stock is touched and the cart is left
// unchanged. Unit prices are snapshotted from the reservation's product
// state, so later catalog price changes never affect the placed order.
func (s *Service) Place(ctx context.Context, userID string, addr user.Address) (*PlaceResult, error) {
	if !validAddress(addr) {
		return nil, ErrMissingAddress
	}

	var result *PlaceResult
	err := s.carts.Update(ctx, userID, func(c *cart.Cart) error {
		if len(c.Lines) == 0 {
			return ErrEmptyCart
		}

		demands := make([]catalog.Demand, len(c.Lines))
		for i, line := range c.Lines {
			demands[i] = catalog.Demand{ProductID: line.ProductID, Quantity: line.Quantity}
		}

		products, err := s.products.Reserve(ctx, demands)
		if err != nil {
			return err
		}

		lines := make([]Line, len(c.Lines))
		total := decimal.Zero
		for i, cl := range c.Lines {
			p := products[i]
			subtotal := p.Price.Mul(decimal.NewFromInt(int64(cl.Quantity)))
			lines[i] = Line{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    cl.Quantity,
				UnitPrice:   p.Price,
				Subtotal:    subtotal,
			}
			total = total.Add(subtotal)
		}

		o := &Order{
			UserID:          userID,
			OrderedAt:       s.now(),
			Status:          StatusConfirmed,
			ShippingAddress: addr,
			Lines:           lines,
			Total:           total,
		}
		if err := s.orders.Create(ctx, o); err != nil {
			// Give the reserved stock back; the cart stays as it was.
			if relErr := s.products.Release(ctx, demands); relErr != nil {
				return errors.Wrap(relErr, "release after failed create")
			}
			return errors.Wrap(err, "create order")
		}

		c.Lines = nil
		c.UpdatedAt = s.now()

		result = &PlaceResult{
			OrderID:   o.ID,
			Total:     o.Total,
			Status:    o.Status,
			OrderedAt: o.OrderedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Get returns the full order record. Ownership is checked after lookup so
// knowing a valid id is never enough to read another user's order.
func (s *Service) Get(ctx context.Context, orderID, requesterID string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != requesterID {
		return nil, ErrForbidden
	}
	return o, nil
}

// List returns summaries of all orders owned by the user, in placement order.
func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, len(orders))
	for i := range orders {
		summaries[i] = orders[i].Summarize()
	}
	return summaries, nil
}

// validAddress reports whether the shipping address carries the minimum
// required fields.
func validAddress(a user.Address) bool {
	return a.Name != "" && a.PostalCode != "" && a.Line1 != ""
}
