// Package pricing reduces canonical cart items to totals.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-cart/internal/model"
)

// Totals returns the number of units and the subtotal of items.
func Totals(items []model.CartItem) model.Totals {
	totals := model.Totals{Subtotal: decimal.Zero}
	for _, item := range items {
		totals.ItemCount += item.Quantity
		totals.Subtotal = totals.Subtotal.Add(lineTotal(item))
	}
	return totals
}

// EligibleSubtotal sums the line totals of the items accepted by applies.
func EligibleSubtotal(items []model.CartItem, applies func(model.CartItem) bool) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		if applies(item) {
			subtotal = subtotal.Add(lineTotal(item))
		}
	}
	return subtotal
}

// Payable is subtotal minus discount, floored at zero.
func Payable(subtotal, discount decimal.Decimal) decimal.Decimal {
	return decimal.Max(subtotal.Sub(discount), decimal.Zero)
}

func lineTotal(item model.CartItem) decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}
