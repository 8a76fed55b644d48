package pra

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pra-pos/internal/domain/order"
	"github.com/xenking/pra-pos/pkg/money"
)

const dateTimeLayout = "2006-01-02 15:04:05"

var hundred = decimal.NewFromInt(100)

// InvalidItemError indicates an order line references an item that cannot
// be fiscalized because its item code is blank.
type InvalidItemError struct {
	ItemName string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("item %q has no item code, cannot fiscalize", e.ItemName)
}

// Mapper translates internal orders into PRA wire invoices.
type Mapper struct {
	cfg Config
	loc *time.Location
}

// NewMapper constructs a Mapper. The invoice DateTime is rendered in the
// configured timezone (Asia/Karachi by convention); UTC is used only when
// the zone database lacks the entry.
func NewMapper(cfg Config) *Mapper {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &Mapper{cfg: cfg, loc: loc}
}

// Location is the business timezone invoices are timestamped in.
func (m *Mapper) Location() *time.Location {
	return m.loc
}

// FromOrder builds the wire invoice for an order.
//
// The order-level discount is split across lines proportionally to their
// line totals, each share rounded to scale 2. Declared envelope totals are
// aggregated from the emitted lines, never from the order's own totals, so
// the invoice is self-consistent to the paisa. The envelope Discount stays
// the raw order discount; per-line shares may differ from it by rounding
// residue of at most two paisa.
func (m *Mapper) FromOrder(o *order.Order) (*Invoice, error) {
	gstRate := m.gstRate(o.PaymentMode)
	discount := o.Discount

	rawTotal := decimal.Zero
	for _, l := range o.Lines {
		rawTotal = rawTotal.Add(l.LineTotal)
	}

	items := make([]InvoiceItem, 0, len(o.Lines))
	totalSale := decimal.Zero
	totalTax := decimal.Zero
	totalQty := decimal.Zero
	for _, l := range o.Lines {
		it, err := m.mapLine(l, gstRate, discount, rawTotal)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		totalSale = totalSale.Add(it.SaleValue)
		totalTax = totalTax.Add(it.TaxCharged)
		totalQty = totalQty.Add(it.Quantity)
	}

	totalBill := money.FloorZero(money.Round2(totalSale.Add(totalTax)))

	return &Invoice{
		POSID:            m.cfg.POSID,
		USIN:             o.InvoiceNumber,
		DateTime:         o.CreatedAt.In(m.loc).Format(dateTimeLayout),
		TotalSaleValue:   totalSale,
		TotalTaxCharged:  totalTax,
		TotalBillAmount:  totalBill,
		TotalQuantity:    totalQty,
		PaymentMode:      paymentModeCode(o.PaymentMode),
		InvoiceType:      m.cfg.InvoiceType,
		Items:            items,
		InvoiceNumber:    "",
		RefUSIN:          nil,
		BuyerName:        optional(o.CustomerName),
		BuyerPNTN:        firstNonBlank(o.CustomerPNTN, o.CustomerTaxID),
		BuyerCNIC:        optional(o.CustomerCNIC),
		BuyerPhoneNumber: optional(o.CustomerPhone),
		Discount:         discount,
		FurtherTax:       decimal.Zero,
	}, nil
}

func (m *Mapper) mapLine(l order.Line, gstRate, totalDiscount, rawTotal decimal.Decimal) (InvoiceItem, error) {
	if l.ItemCode == "" {
		return InvoiceItem{}, &InvalidItemError{ItemName: l.ItemName}
	}

	lineDiscount := money.Share(l.LineTotal, rawTotal, totalDiscount)
	saleValue := money.Round2(l.LineTotal.Sub(lineDiscount))
	taxCharged := money.Round2(saleValue.Mul(gstRate))

	pctCode := l.PCTCode
	if pctCode == "" {
		pctCode = m.cfg.DefaultPCTCode
	}

	return InvoiceItem{
		ItemCode:    l.ItemCode,
		ItemName:    l.ItemName,
		PCTCode:     pctCode,
		Quantity:    decimal.NewFromInt(int64(l.Quantity)),
		TaxRate:     money.Round2(gstRate.Mul(hundred)),
		SaleValue:   saleValue,
		TaxCharged:  taxCharged,
		TotalAmount: money.Round2(saleValue.Add(taxCharged)),
		InvoiceType: m.cfg.InvoiceType,
		Discount:    lineDiscount,
		FurtherTax:  decimal.Zero,
		RefUSIN:     nil,
	}, nil
}

func (m *Mapper) gstRate(mode order.PaymentMode) decimal.Decimal {
	if mode == order.PaymentCard {
		return m.cfg.CardGSTRate
	}
	return m.cfg.CashGSTRate
}

func paymentModeCode(mode order.PaymentMode) int {
	if mode == order.PaymentCard {
		return 2
	}
	return 1
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonBlank(values ...string) *string {
	for _, v := range values {
		if v != "" {
			return &v
		}
	}
	return nil
}
