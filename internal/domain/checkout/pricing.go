package checkout

import "github.com/shopspring/decimal"

// taxRate is the fixed sales tax applied to the discounted base.
var taxRate = decimal.NewFromFloat(0.08)

// Totals is the priced breakdown of a session. Values carry full decimal
// precision; rounding to cents happens only when rendering.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Tip      decimal.Decimal `json:"tip"`
	Total    decimal.Decimal `json:"total"`
}

// Price computes the totals for a session. Pure: no I/O, never fails; an
// empty cart prices to all zeros.
//
// The tip is computed on the pre-discount subtotal. Discount and tax use the
// discounted base. This asymmetry is the behavior customers have been
// charged under, so it is kept as is.
func Price(s *Session) Totals {
	subtotal := decimal.Zero
	for _, line := range s.Lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	discount := decimal.Zero
	if s.DiscountEnabled {
		discount = subtotal.Mul(s.DiscountPercent.Div(decimal.NewFromInt(100)))
	}

	base := subtotal.Sub(discount)
	tax := base.Mul(taxRate)

	tip := s.TipValue
	if s.TipMode == TipPercent {
		tip = subtotal.Mul(s.TipValue.Div(decimal.NewFromInt(100)))
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Tip:      tip,
		Total:    base.Add(tax).Add(tip),
	}
}

// Rounded returns the totals rounded to cents for presentation.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Discount: t.Discount.Round(2),
		Tax:      t.Tax.Round(2),
		Tip:      t.Tip.Round(2),
		Total:    t.Total.Round(2),
	}
}
