// Package cart holds the cart store: line items and the checkout-modal flag.
// It never talks to the network; confirming an order only clears the cart.
package cart

import (
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shoplist/internal/domain/product"
)

// ErrInvalidQuantity is returned when a line would be added with a
// non-positive quantity.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// Line is a product copied into the cart together with its quantity.
type Line struct {
	Product  product.Product
	Quantity int
}

// Total returns price * quantity for the line.
func (l Line) Total() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is a snapshot of the cart store.
type State struct {
	Lines           []Line
	CheckoutVisible bool
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	if s.Lines != nil {
		lines := make([]Line, len(s.Lines))
		for i, l := range s.Lines {
			lines[i] = Line{Product: l.Product.Clone(), Quantity: l.Quantity}
		}
		s.Lines = lines
	}
	return s
}

// AddToCart merges quantity into the line for p, or appends a new line
// holding a copy of p.
func (s State) AddToCart(p product.Product, quantity int) (State, error) {
	if quantity < 1 {
		return s, ErrInvalidQuantity
	}
	lines := slices.Clone(s.Lines)
	if i := indexOf(lines, p.ID); i >= 0 {
		lines[i].Quantity += quantity
	} else {
		lines = append(lines, Line{Product: p.Clone(), Quantity: quantity})
	}
	s.Lines = lines
	return s, nil
}

// UpdateQuantity moves the quantity of itemID up or down by one, never below
// zero. Lines that reach zero are dropped in the same step. Unknown ids leave
// the cart as it is.
func (s State) UpdateQuantity(itemID int, increment bool) State {
	i := indexOf(s.Lines, itemID)
	if i < 0 {
		return s
	}
	lines := slices.Clone(s.Lines)
	if increment {
		lines[i].Quantity++
	} else {
		lines[i].Quantity = max(0, lines[i].Quantity-1)
	}
	s.Lines = slices.DeleteFunc(lines, func(l Line) bool { return l.Quantity <= 0 })
	return s
}

// SetCheckoutVisible toggles the checkout modal. Lines are not touched.
func (s State) SetCheckoutVisible(visible bool) State {
	s.CheckoutVisible = visible
	return s
}

// Clear empties the cart and hides the checkout modal.
func (s State) Clear() State {
	return State{}
}

// Total sums price * quantity over all lines.
func (s State) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// FormattedTotal renders Total with exactly two decimals, e.g. "25.50".
func (s State) FormattedTotal() string {
	return s.Total().StringFixed(2)
}

// ItemCount is the number of units across all lines.
func (s State) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// ClampQuantity floors a quantity picked in the UI at 1.
func ClampQuantity(n int) int {
	return max(n, 1)
}

func indexOf(lines []Line, productID int) int {
	return slices.IndexFunc(lines, func(l Line) bool { return l.Product.ID == productID })
}
