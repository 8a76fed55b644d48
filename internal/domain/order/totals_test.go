package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var testRates = Rates{
	Cash: decimal.RequireFromString("0.16"),
	Card: decimal.RequireFromString("0.05"),
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLine(name, unitPrice string, qty int) Line {
	price := dec(unitPrice)
	return Line{
		ItemName:  name,
		Quantity:  qty,
		UnitPrice: price,
		LineTotal: price.Mul(decimal.NewFromInt(int64(qty))).Round(2),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestComputeTotals_CashNoDiscount(t *testing.T) {
	lines := []Line{
		testLine("Espresso", "2.50", 2),
		testLine("Muffin", "3.25", 1),
	}

	got := ComputeTotals(lines, decimal.Zero, PaymentCash, testRates)

	assertDecimal(t, "8.25", got.Subtotal)
	assertDecimal(t, "1.32", got.Tax)
	assertDecimal(t, "9.57", got.Total)
	assertDecimal(t, "0.16", got.GSTRate)
	assertDecimal(t, "1.32", got.GSTAmount)
}

func TestComputeTotals_Card(t *testing.T) {
	lines := []Line{testLine("Latte", "4.00", 3)}

	got := ComputeTotals(lines, decimal.Zero, PaymentCard, testRates)

	assertDecimal(t, "12.00", got.Subtotal)
	assertDecimal(t, "0.60", got.Tax)
	assertDecimal(t, "12.60", got.Total)
	assertDecimal(t, "0.05", got.GSTRate)
}

func TestComputeTotals_DiscountBeforeTax(t *testing.T) {
	lines := []Line{
		testLine("A", "10.00", 1),
		testLine("B", "30.00", 1),
	}

	got := ComputeTotals(lines, dec("4.00"), PaymentCash, testRates)

	assertDecimal(t, "40.00", got.Subtotal)
	// Tax on the discounted base: (40 - 4) * 0.16 = 5.76.
	assertDecimal(t, "5.76", got.Tax)
	assertDecimal(t, "41.76", got.Total)
}

func TestComputeTotals_DiscountExceedsSubtotal(t *testing.T) {
	lines := []Line{testLine("A", "10.00", 1)}

	got := ComputeTotals(lines, dec("999.00"), PaymentCash, testRates)

	assertDecimal(t, "10.00", got.Subtotal)
	assertDecimal(t, "0", got.Tax)
	assertDecimal(t, "0", got.Total)
}

func TestComputeTotals_EmptyOrder(t *testing.T) {
	got := ComputeTotals(nil, decimal.Zero, PaymentCash, testRates)

	assertDecimal(t, "0", got.Subtotal)
	assertDecimal(t, "0", got.Tax)
	assertDecimal(t, "0", got.Total)
}

func TestComputeTotals_MissingModeDefaultsToCash(t *testing.T) {
	lines := []Line{testLine("A", "100.00", 1)}

	got := ComputeTotals(lines, decimal.Zero, "", testRates)

	assertDecimal(t, "0.16", got.GSTRate)
	assertDecimal(t, "16.00", got.Tax)
}

func TestComputeTotals_HalfUpRounding(t *testing.T) {
	// 3 × 1.115 = 3.345; line totals round half-up at snapshot time.
	lines := []Line{testLine("Odd", "1.115", 3)}

	got := ComputeTotals(lines, decimal.Zero, PaymentCard, testRates)

	assertDecimal(t, "3.35", got.Subtotal)
	// 3.35 * 0.05 = 0.1675 → 0.17 half-up.
	assertDecimal(t, "0.17", got.Tax)
	assertDecimal(t, "3.52", got.Total)
}
