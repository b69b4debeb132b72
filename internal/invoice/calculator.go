package invoice

import "github.com/shopspring/decimal"

// DefaultTaxRate is the GST rate applied when none is configured.
var DefaultTaxRate = decimal.RequireFromString("0.18")

// Totals is the output of Calculator.Compute.
type Totals struct {
	LineItems   []LineItem
	SubTotal    decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// Calculator derives line totals, subtotal, tax and grand total.
// It assumes its input has already been validated.
type Calculator struct {
	TaxRate decimal.Decimal
}

// NewCalculator returns a Calculator applying rate.
func NewCalculator(rate decimal.Decimal) Calculator {
	return Calculator{TaxRate: rate}
}

// Compute returns a copy of items with Total filled in, in input order, plus
// the invoice amounts. No rounding is applied.
func (c Calculator) Compute(items []LineItem) Totals {
	out := make([]LineItem, len(items))
	subTotal := decimal.Zero
	for i, item := range items {
		item.Total = item.Rate.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subTotal = subTotal.Add(item.Total)
		out[i] = item
	}
	tax := subTotal.Mul(c.TaxRate)
	return Totals{
		LineItems:   out,
		SubTotal:    subTotal,
		TaxRate:     c.TaxRate,
		TaxAmount:   tax,
		TotalAmount: subTotal.Add(tax),
	}
}
