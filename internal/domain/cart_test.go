package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id string, price float64, stock int) *Product {
	return &Product{ID: id, Name: "product " + id, Price: price, Stock: stock}
}

func TestCart_Add(t *testing.T) {
	p1 := testProduct("p1", 100, 5)

	t.Run("appends new line", func(t *testing.T) {
		c := NewCart("u1")
		require.NoError(t, c.Add(p1, 2))
		assert.Equal(t, []CartLine{{ProductID: "p1", Quantity: 2}}, c.Items)
	})

	t.Run("merges and clamps to stock", func(t *testing.T) {
		c := NewCart("u1")
		require.NoError(t, c.Add(p1, 2))
		require.NoError(t, c.Add(p1, 4))
		assert.Equal(t, []CartLine{{ProductID: "p1", Quantity: 5}}, c.Items)
	})

	t.Run("unlimited stock never clamps", func(t *testing.T) {
		c := NewCart("u1")
		p := testProduct("p2", 10, UnlimitedStock)
		require.NoError(t, c.Add(p, 40))
		require.NoError(t, c.Add(p, 60))
		line, ok := c.Line("p2")
		require.True(t, ok)
		assert.Equal(t, 100, line.Quantity)
	})

	t.Run("merge overflow on unlimited stock is rejected", func(t *testing.T) {
		c := NewCart("u1")
		p := testProduct("p3", 1, UnlimitedStock)
		require.NoError(t, c.Add(p, math.MaxInt))
		assert.ErrorIs(t, c.Add(p, 1), ErrInvalidQuantity)

		line, ok := c.Line("p3")
		require.True(t, ok)
		assert.Equal(t, math.MaxInt, line.Quantity)
	})

	t.Run("merge overflow on limited stock clamps", func(t *testing.T) {
		c := NewCart("u1")
		p := testProduct("p4", 1, math.MaxInt)
		require.NoError(t, c.Add(p, math.MaxInt-1))
		require.NoError(t, c.Add(p, math.MaxInt-1))

		line, ok := c.Line("p4")
		require.True(t, ok)
		assert.Equal(t, math.MaxInt, line.Quantity)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		c := NewCart("u1")
		for _, q := range []int{0, -1, -100} {
			err := c.Add(p1, q)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, ErrInvalidQuantity)
		}
		assert.Empty(t, c.Items)
	})

	t.Run("rejects quantity above stock", func(t *testing.T) {
		c := NewCart("u1")
		err := c.Add(p1, 6)
		assert.ErrorIs(t, err, ErrStock)
		assert.Empty(t, c.Items)
	})
}

func TestCart_SetQuantity(t *testing.T) {
	p1 := testProduct("p1", 100, 5)

	t.Run("zero removes the line", func(t *testing.T) {
		c := NewCart("u1")
		require.NoError(t, c.Add(p1, 3))
		require.NoError(t, c.SetQuantity(p1, 0))
		assert.Empty(t, c.Items)
	})

	t.Run("clamps to stock", func(t *testing.T) {
		c := NewCart("u1")
		require.NoError(t, c.Add(p1, 1))
		require.NoError(t, c.SetQuantity(p1, 9))
		line, _ := c.Line("p1")
		assert.Equal(t, 5, line.Quantity)
	})

	t.Run("missing line", func(t *testing.T) {
		c := NewCart("u1")
		assert.ErrorIs(t, c.SetQuantity(p1, 2), ErrLineNotFound)
	})
}

func TestCart_Decrement(t *testing.T) {
	p1 := testProduct("p1", 100, 0)
	c := NewCart("u1")
	require.NoError(t, c.Add(p1, 2))

	require.NoError(t, c.Decrement("p1"))
	line, ok := c.Line("p1")
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)

	require.NoError(t, c.Decrement("p1"))
	assert.Empty(t, c.Items)

	assert.ErrorIs(t, c.Decrement("p1"), ErrNotFound)
}

func TestCart_RemoveAndRetain(t *testing.T) {
	c := NewCart("u1")
	require.NoError(t, c.Add(testProduct("p1", 1, 0), 1))
	require.NoError(t, c.Add(testProduct("p2", 1, 0), 1))
	require.NoError(t, c.Add(testProduct("p3", 1, 0), 1))

	assert.True(t, c.Remove("p2"))
	assert.False(t, c.Remove("p2"))

	removed := c.Retain(func(l CartLine) bool { return l.ProductID != "p3" })
	assert.Equal(t, 1, removed)
	assert.Equal(t, []CartLine{{ProductID: "p1", Quantity: 1}}, c.Items)
	assert.Zero(t, c.Retain(func(CartLine) bool { return true }))
}

func TestCart_Clone(t *testing.T) {
	c := NewCart("u1")
	require.NoError(t, c.Add(testProduct("p1", 1, 0), 1))

	clone := c.Clone()
	clone.Items[0].Quantity = 9
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestPopulatedCart_Total(t *testing.T) {
	pc := PopulatedCart{
		Owner: "u1",
		Lines: []PopulatedLine{
			{Product: testProduct("p1", 19.99, 0), Quantity: 3},
			{Product: testProduct("p2", 0.01, 0), Quantity: 1},
		},
	}
	assert.True(t, decimal.RequireFromString("60").Equal(pc.Total()))
	assert.True(t, PopulatedCart{}.Total().IsZero())
}
