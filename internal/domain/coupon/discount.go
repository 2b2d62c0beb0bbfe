package coupon

import "github.com/shopspring/decimal"

// Apply computes the discount c grants on amount and the resulting final
// amount. A positive DiscountAmount wins over DiscountPercent when both are
// set. The final amount is clamped at zero: a coupon larger than the order
// never produces a negative total. Both results are rounded to 2 decimal
// places, half away from zero.
func Apply(c *Coupon, amount decimal.Decimal) (final, discount decimal.Decimal) {
	switch {
	case c.DiscountAmount.IsPositive():
		discount = c.DiscountAmount
	case c.DiscountPercent.IsPositive():
		discount = amount.Mul(c.DiscountPercent).Div(decimal.NewFromInt(100))
	default:
		discount = decimal.Zero
	}
	discount = discount.Round(2)

	final = amount.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return final.Round(2), discount
}
