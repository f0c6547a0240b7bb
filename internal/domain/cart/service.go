package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/knagata/storefront/internal/domain/catalog"
)

// Config holds optional Service tuning.
type Config struct {
	// AddLatency is an artificial delay applied before Add mutates the
	// cart. Zero disables it. It exists for exercising client timeout and
	// backpressure handling against a slow endpoint.
	AddLatency time.Duration
}

// Service implements cart operations on top of a Repository and the
// product catalog.
type Service struct {
	carts    Repository
	products catalog.Store
	cfg      Config
	now      func() time.Time
}

// NewService creates a cart Service.
func NewService(carts Repository, products catalog.Store, cfg Config) *Service {
	return &Service{
		carts:    carts,
		products: products,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Add merges qty of the given product into the user's cart. The combined
// line quantity must not exceed the product's current stock. On success it
// returns the updated cart view.
func (s *Service) Add(ctx context.Context, userID, productID string, qty int) (*View, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	if err := s.sleep(ctx); err != nil {
		return nil, err
	}

	err := s.carts.Update(ctx, userID, func(c *Cart) error {
		p, err := s.products.Get(ctx, productID)
		if err != nil {
			return err
		}

		requested := qty
		if line := c.Line(productID); line != nil {
			requested += line.Quantity
		}
		if requested > p.Stock {
			return &catalog.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   requested,
				Available:   p.Stock,
			}
		}

		if line := c.Line(productID); line != nil {
			line.Quantity = requested
		} else {
			c.Lines = append(c.Lines, Line{
				ProductID: productID,
				Quantity:  qty,
				AddedAt:   s.now(),
			})
		}
		c.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.View(ctx, userID)
}

// SetQuantity overwrites the line quantity for the given product. Zero
// removes the line; the quantity must not exceed current stock. Setting a
// quantity for a product not in the cart leaves the cart unchanged.
func (s *Service) SetQuantity(ctx context.Context, userID, productID string, qty int) (*View, error) {
	if qty < 0 {
		return nil, ErrInvalidQuantity
	}

	err := s.carts.Update(ctx, userID, func(c *Cart) error {
		p, err := s.products.Get(ctx, productID)
		if err != nil {
			return err
		}

		if qty == 0 {
			if c.RemoveLine(productID) {
				c.UpdatedAt = s.now()
			}
			return nil
		}

		if qty > p.Stock {
			return &catalog.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   qty,
				Available:   p.Stock,
			}
		}

		if line := c.Line(productID); line != nil {
			line.Quantity = qty
			c.UpdatedAt = s.now()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.View(ctx, userID)
}

// Remove deletes the line for the given product. Removing an absent line
// is a no-op, not an error.
func (s *Service) Remove(ctx context.Context, userID, productID string) error {
	return s.carts.Update(ctx, userID, func(c *Cart) error {
		if c.RemoveLine(productID) {
			c.UpdatedAt = s.now()
		}
		return nil
	})
}

// Clear replaces the user's cart with a fresh empty one.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.carts.Update(ctx, userID, func(c *Cart) error {
		c.Lines = nil
		c.UpdatedAt = s.now()
		return nil
	})
}

// View joins the user's cart against the catalog. Lines whose product no
// longer exists are dropped silently: a dangling reference is a benign
// artifact, not a fault.
func (s *Service) View(ctx context.Context, userID string) (*View, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	v := &View{
		Lines:     make([]ViewLine, 0, len(c.Lines)),
		Total:     decimal.Zero,
		UpdatedAt: c.UpdatedAt,
	}
	for _, line := range c.Lines {
		p, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue
			}
			return nil, errors.Wrap(err, "join cart line")
		}

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		v.Lines = append(v.Lines, ViewLine{
			ProductID: line.ProductID,
			Product:   *p,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
			AddedAt:   line.AddedAt,
		})
		v.Total = v.Total.Add(subtotal)
		v.ItemCount += line.Quantity
	}

	return v, nil
}

// sleep waits for the configured add latency, returning early if the
// caller gives up.
func (s *Service) sleep(ctx context.Context) error {
	if s.cfg.AddLatency <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.AddLatency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
