package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("valid product", func(t *testing.T) {
		p, err := NewProduct("Mouse", "Wireless", "electronics", 499, 10)
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.True(t, p.HasStockLimit())
	})

	t.Run("free product is allowed", func(t *testing.T) {
		_, err := NewProduct("Sticker", "", "misc", 0, 0)
		assert.NoError(t, err)
	})

	t.Run("invalid fields", func(t *testing.T) {
		_, err := NewProduct("", "", "", 1, 0)
		assert.ErrorIs(t, err, ErrInvalidProductName)
		_, err = NewProduct("x", "", "", -1, 0)
		assert.ErrorIs(t, err, ErrInvalidProductPrice)
		_, err = NewProduct("x", "", "", 1, -1)
		assert.ErrorIs(t, err, ErrInvalidProductStock)
	})
}

func TestProduct_ClampQuantity(t *testing.T) {
	limited := &Product{Stock: 3}
	assert.Equal(t, 3, limited.ClampQuantity(7))
	assert.Equal(t, 2, limited.ClampQuantity(2))

	unlimited := &Product{Stock: UnlimitedStock}
	assert.False(t, unlimited.HasStockLimit())
	assert.Equal(t, 7, unlimited.ClampQuantity(7))
}
