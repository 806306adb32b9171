package services

import (
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the display tax applied to the cart subtotal
var DefaultTaxRate = decimal.RequireFromString("0.13")

// Line is one priced cart entry
type Line struct {
	Product  models.ProductRef
	Quantity int
	Subtotal decimal.Decimal
}

// Summary is the display breakdown shown before checkout. The server
// computes the real order total.
type Summary struct {
	Lines    []Line
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Summarize prices lines with taxRate and free shipping. Tax is rounded
// to cents. lines is not modified.
func Summarize(lines []Line, taxRate decimal.Decimal) Summary {
	sum := Summary{Lines: make([]Line, len(lines)), Subtotal: decimal.Zero, Shipping: decimal.Zero}
	for i, l := range lines {
		l.Subtotal = l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		sum.Lines[i] = l
		sum.Subtotal = sum.Subtotal.Add(l.Subtotal)
	}
	sum.Tax = sum.Subtotal.Mul(taxRate).Round(2)
	sum.Total = sum.Subtotal.Add(sum.Tax).Add(sum.Shipping)
	return sum
}
