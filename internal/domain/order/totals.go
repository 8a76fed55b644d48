package order

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/pra-pos/pkg/money"
)

// Rates holds the payment-mode-dependent GST rates as fractions
// (0.16 = 16%).
type Rates struct {
	Cash decimal.Decimal
	Card decimal.Decimal
}

// Totals is the computed monetary summary of an order. All fields are
// scale-2 except GSTRate, which stays a fraction at full precision.
type Totals struct {
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	GSTRate   decimal.Decimal
	GSTAmount decimal.Decimal
}

// Rate resolves the GST rate for a payment mode. A missing mode is treated
// as cash, mirroring the draft default.
func (r Rates) Rate(mode PaymentMode) decimal.Decimal {
	if mode == PaymentCard {
		return r.Card
	}
	return r.Cash
}

// ComputeTotals derives the order's monetary summary from its lines.
//
//	subtotal = round2(Σ line_total)
//	base     = max(0, subtotal − discount)
//	tax      = round2(base · rate)
//	total    = round2(base + tax)
//
// Intermediate products keep full precision until the named rounding
// steps; no result is negative. The function is total on well-formed
// input and never fails.
func ComputeTotals(lines []Line, discount decimal.Decimal, mode PaymentMode, rates Rates) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
	}
	subtotal = money.Round2(subtotal)

	base := money.FloorZero(subtotal.Sub(discount))
	rate := rates.Rate(mode)
	tax := money.Round2(base.Mul(rate))
	total := money.Round2(base.Add(tax))

	return Totals{
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     total,
		GSTRate:   rate,
		GSTAmount: tax,
	}
}

// applyTotals writes a computed summary back onto the order.
func (o *Order) applyTotals(t Totals) {
	o.Subtotal = t.Subtotal
	o.Tax = t.Tax
	o.Total = t.Total
	o.GSTRate = t.GSTRate
	o.GSTAmount = t.GSTAmount
}
