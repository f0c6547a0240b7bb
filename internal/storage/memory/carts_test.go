package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/knagata/storefront/internal/domain/cart"
)

func TestCartRepository_LazyCreation(t *testing.T) {
	r := NewCartRepository()

	c, err := r.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Empty(t, c.Lines)
}

func TestCartRepository_UpdatePersists(t *testing.T) {
	r := NewCartRepository()
	ctx := context.Background()

	err := r.Update(ctx, "u1", func(c *cart.Cart) error {
		c.Lines = append(c.Lines, cart.Line{ProductID: "p1", Quantity: 2})
		return nil
	})
	require.NoError(t, err)

	c, err := r.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
}

func TestCartRepository_GetReturnsCopy(t *testing.T) {
	r := NewCartRepository()
	ctx := context.Background()

	err := r.Update(ctx, "u1", func(c *cart.Cart) error {
		c.Lines = append(c.Lines, cart.Line{ProductID: "p1", Quantity: 2})
		return nil
	})
	require.NoError(t, err)

	c, err := r.Get(ctx, "u1")
	require.NoError(t, err)
	c.Lines[0].Quantity = 99

	again, err := r.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Lines[0].Quantity)
}

func TestCartRepository_ConcurrentUpdatesSerialize(t *testing.T) {
	r := NewCartRepository()
	ctx := context.Background()

	// 100 concurrent increments of the same line must all land.
	var g errgroup.Group
	for range 100 {
		g.Go(func() error {
			return r.Update(ctx, "u1", func(c *cart.Cart) error {
				if line := c.Line("p1"); line != nil {
					line.Quantity++
					return nil
				}
				c.Lines = append(c.Lines, cart.Line{ProductID: "p1", Quantity: 1})
				return nil
			})
		})
	}
	require.NoError(t, g.Wait())

	c, err := r.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 100, c.Lines[0].Quantity)
}
