package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shoplist/internal/domain/product"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestProduct(id int, price string) product.Product {
	return product.Product{
		ID:     id,
		Title:  "Product",
		Price:  d(price),
		Images: []string{"https://cdn.example.com/p.jpg"},
	}
}

func mustAdd(t *testing.T, s State, p product.Product, qty int) State {
	t.Helper()
	next, err := s.AddToCart(p, qty)
	require.NoError(t, err)
	return next
}

func TestAddToCart_SameProductSumsQuantities(t *testing.T) {
	tests := []struct {
		name string
		adds []int
		want int
	}{
		{name: "single add", adds: []int{1}, want: 1},
		{name: "two adds", adds: []int{2, 3}, want: 5},
		{name: "many adds", adds: []int{1, 1, 1, 4, 10}, want: 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProduct(1, "9.99")
			var s State
			for _, q := range tt.adds {
				s = mustAdd(t, s, p, q)
			}
			require.Len(t, s.Lines, 1)
			assert.Equal(t, tt.want, s.Lines[0].Quantity)
		})
	}
}

func TestAddToCart_DistinctProductsGetOwnLines(t *testing.T) {
	var s State
	s = mustAdd(t, s, newTestProduct(1, "1"), 1)
	s = mustAdd(t, s, newTestProduct(2, "2"), 2)
	s = mustAdd(t, s, newTestProduct(1, "1"), 1)

	require.Len(t, s.Lines, 2)
	assert.Equal(t, 1, s.Lines[0].Product.ID)
	assert.Equal(t, 2, s.Lines[0].Quantity)
	assert.Equal(t, 2, s.Lines[1].Product.ID)
}

func TestAddToCart_RejectsNonPositiveQuantity(t *testing.T) {
	for _, q := range []int{0, -1} {
		s, err := State{}.AddToCart(newTestProduct(1, "1"), q)
		require.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Empty(t, s.Lines)
	}
}

func TestAddToCart_CopiesProduct(t *testing.T) {
	p := newTestProduct(1, "1")
	s := mustAdd(t, State{}, p, 1)

	p.Images[0] = "changed"
	assert.Equal(t, "https://cdn.example.com/p.jpg", s.Lines[0].Product.Images[0])
}

func TestUpdateQuantity(t *testing.T) {
	var s State
	s = mustAdd(t, s, newTestProduct(1, "1"), 2)
	s = mustAdd(t, s, newTestProduct(2, "1"), 1)

	s = s.UpdateQuantity(1, true)
	assert.Equal(t, 3, s.Lines[0].Quantity)

	s = s.UpdateQuantity(1, false)
	assert.Equal(t, 2, s.Lines[0].Quantity)

	// Decrementing a line at 1 removes it.
	s = s.UpdateQuantity(2, false)
	require.Len(t, s.Lines, 1)
	assert.Equal(t, 1, s.Lines[0].Product.ID)

	// Unknown ids are ignored.
	s = s.UpdateQuantity(42, false)
	assert.Len(t, s.Lines, 1)
}

func TestUpdateQuantity_NeverLeavesNonPositiveLines(t *testing.T) {
	var s State
	s = mustAdd(t, s, newTestProduct(1, "1"), 3)
	s = mustAdd(t, s, newTestProduct(2, "1"), 1)

	for range 10 {
		s = s.UpdateQuantity(1, false)
		s = s.UpdateQuantity(2, false)
		for _, l := range s.Lines {
			assert.Positive(t, l.Quantity)
		}
	}
	assert.Empty(t, s.Lines)
}

func TestUpdateQuantity_DoesNotMutateInput(t *testing.T) {
	before := mustAdd(t, State{}, newTestProduct(1, "1"), 1)
	after := before.UpdateQuantity(1, false)

	assert.Empty(t, after.Lines)
	require.Len(t, before.Lines, 1)
	assert.Equal(t, 1, before.Lines[0].Quantity)
}

func TestTotal(t *testing.T) {
	var s State
	s = mustAdd(t, s, newTestProduct(1, "10"), 2)
	s = mustAdd(t, s, newTestProduct(2, "5.50"), 1)

	assert.True(t, d("25.50").Equal(s.Total()))
	assert.Equal(t, "25.50", s.FormattedTotal())
	assert.Equal(t, 3, s.ItemCount())
}

func TestTotal_Empty(t *testing.T) {
	assert.Equal(t, "0.00", State{}.FormattedTotal())
	assert.Equal(t, 0, State{}.ItemCount())
}

func TestTotal_RoundsToCents(t *testing.T) {
	s := mustAdd(t, State{}, newTestProduct(1, "0.333"), 3)
	assert.Equal(t, "1.00", s.FormattedTotal())
}

func TestCheckoutAndClear(t *testing.T) {
	s := mustAdd(t, State{}, newTestProduct(1, "1"), 1)

	s = s.SetCheckoutVisible(true)
	assert.True(t, s.CheckoutVisible)
	assert.Len(t, s.Lines, 1, "checkout flag must not touch lines")

	s = s.Clear()
	assert.Empty(t, s.Lines)
	assert.False(t, s.CheckoutVisible)
}

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 1, ClampQuantity(-2))
	assert.Equal(t, 1, ClampQuantity(0))
	assert.Equal(t, 4, ClampQuantity(4))
}
