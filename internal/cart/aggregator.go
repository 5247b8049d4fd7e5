// Package cart holds the merge rules for cart lines. A cart never holds two
// lines for the same product; every function returns a new slice and leaves
// its input untouched.
package cart

import (
	"errors"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1, use remove instead")

// Add merges line into lines. An existing line for the same product has its
// quantity increased by line.Quantity; otherwise line is appended.
func Add(lines []model.CartLine, line model.CartLine) ([]model.CartLine, error) {
	if line.Quantity < 1 {
		return lines, ErrInvalidQuantity
	}

	out := clone(lines)
	if i := indexOf(out, line.ProductID); i >= 0 {
		out[i].Quantity += line.Quantity
		return out, nil
	}
	return append(out, line), nil
}

// SetQuantity replaces the quantity of productID in place. Quantities below
// one are rejected and the cart is returned unchanged.
func SetQuantity(lines []model.CartLine, productID string, n int) ([]model.CartLine, error) {
	if n < 1 {
		return lines, ErrInvalidQuantity
	}

	i := indexOf(lines, productID)
	if i < 0 {
		return lines, nil
	}
	out := clone(lines)
	out[i].Quantity = n
	return out, nil
}

// Remove drops the line for productID. Unknown ids are a no-op.
func Remove(lines []model.CartLine, productID string) []model.CartLine {
	i := indexOf(lines, productID)
	if i < 0 {
		return lines
	}
	out := make([]model.CartLine, 0, len(lines)-1)
	out = append(out, lines[:i]...)
	return append(out, lines[i+1:]...)
}

func Subtotal(lines []model.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// Count is the number of units across all lines.
func Count(lines []model.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func indexOf(lines []model.CartLine, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func clone(lines []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, len(lines), len(lines)+1)
	copy(out, lines)
	return out
}
