package order

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/pra-pos/internal/domain/item"
)

// Patch holds optional order header updates. Nil fields are left untouched.
type Patch struct {
	CustomerName  *string
	CustomerPhone *string
	CustomerCNIC  *string
	CustomerPNTN  *string
	CustomerTaxID *string
	Notes         *string
	Discount      *decimal.Decimal
	PaymentMode   *PaymentMode
}

// Service drives the order lifecycle: drafting, line edits, and the
// checkout transition through fiscalization.
type Service struct {
	orders     Repository
	items      item.Repository
	fiscalizer Fiscalizer
	rates      Rates

	// checkoutMu serialises concurrent checkouts of the same order when
	// the persistence layer cannot. Entries are per order id and removed
	// once the order reaches a terminal state.
	checkoutMu sync.Map
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Repository, items item.Repository, fiscalizer Fiscalizer, rates Rates) *Service {
	return &Service{
		orders:     orders,
		items:      items,
		fiscalizer: fiscalizer,
		rates:      rates,
	}
}

// Create opens a new DRAFT order with cash pre-selected and a fresh
// invoice number.
func (s *Service) Create(ctx context.Context) (*Order, error) {
	o := &Order{
		ID:            uuid.New(),
		InvoiceNumber: NewInvoiceNumber(time.Now()),
		Status:        StatusDraft,
		PaymentMode:   PaymentCash,
	}
	o.applyTotals(ComputeTotals(nil, decimal.Zero, o.PaymentMode, s.rates))

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Get loads an order with its lines.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// List returns orders newest-first, optionally filtered by status
// (empty status means all).
func (s *Service) List(ctx context.Context, status Status) ([]Order, error) {
	return s.orders.List(ctx, status)
}

// AddOrUpdateLine puts an item on a draft order, snapshotting the current
// catalogue price, and recomputes totals. An existing line for the same
// item is replaced rather than duplicated.
func (s *Service) AddOrUpdateLine(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (*Order, error) {
	if quantity <= 0 {
		return nil, &InvalidStateError{Reason: "quantity must be greater than 0"}
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusDraft {
		return nil, &InvalidStateError{Reason: "only DRAFT orders can be modified"}
	}

	it, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	l := findLine(o, itemID)
	if l == nil {
		o.Lines = append(o.Lines, Line{ID: uuid.New(), ItemID: it.ID})
		l = &o.Lines[len(o.Lines)-1]
	}
	l.ItemName = it.Name
	l.ItemCode = it.ItemCode
	l.PCTCode = it.PCTCode
	l.Quantity = quantity
	l.UnitPrice = it.Price
	l.LineTotal = it.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)

	if err := s.orders.SaveLine(ctx, o.ID, l); err != nil {
		return nil, errors.Wrap(err, "save line")
	}
	return s.recalcAndSave(ctx, o)
}

// RemoveLine deletes a line from a draft order and recomputes totals.
func (s *Service) RemoveLine(ctx context.Context, orderID, itemID uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusDraft {
		return nil, &InvalidStateError{Reason: "only DRAFT orders can be modified"}
	}

	l := findLine(o, itemID)
	if l == nil {
		return nil, ErrLineNotFound
	}
	if err := s.orders.DeleteLine(ctx, o.ID, l.ID); err != nil {
		return nil, errors.Wrap(err, "delete line")
	}

	lines := o.Lines[:0]
	for _, existing := range o.Lines {
		if existing.ID != l.ID {
			lines = append(lines, existing)
		}
	}
	o.Lines = lines

	return s.recalcAndSave(ctx, o)
}

// Update patches header fields. Customer data, notes, and discount may
// change in any non-terminal state; the payment mode only while DRAFT.
// Totals are recomputed afterwards.
func (s *Service) Update(ctx context.Context, orderID uuid.UUID, p Patch) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.CustomerPhone != nil {
		o.CustomerPhone = *p.CustomerPhone
	}
	if p.CustomerCNIC != nil {
		o.CustomerCNIC = *p.CustomerCNIC
	}
	if p.CustomerPNTN != nil {
		o.CustomerPNTN = *p.CustomerPNTN
	}
	if p.CustomerTaxID != nil {
		o.CustomerTaxID = *p.CustomerTaxID
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.Discount != nil {
		if p.Discount.IsNegative() {
			return nil, &InvalidStateError{Reason: "discount cannot be negative"}
		}
		o.Discount = *p.Discount
	}
	if p.PaymentMode != nil {
		if o.Status != StatusDraft {
			return nil, &InvalidStateError{Reason: "payment mode can only be changed in DRAFT"}
		}
		o.PaymentMode = *p.PaymentMode
	}

	return s.recalcAndSave(ctx, o)
}

// Cancel moves a draft order to CANCELLED. Paid and already-cancelled
// orders are rejected.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusDraft {
		return nil, &InvalidStateError{Reason: "only DRAFT orders can be cancelled"}
	}

	o.Status = StatusCancelled
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "cancel order")
	}
	s.checkoutMu.Delete(orderID)
	return o, nil
}

// Checkout validates the draft, recomputes totals, submits the fiscal
// invoice, and atomically moves the order to PAID with the returned
// fiscal fields.
//
// A fiscalization transport failure is returned as-is and leaves the
// order DRAFT; the call may be retried. A reachable upstream that does
// not issue a fiscal number (e.g. missing credentials) still completes
// the transition, with empty fiscal fields.
func (s *Service) Checkout(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	mu := s.lockOrder(orderID)
	mu.Lock()
	defer mu.Unlock()

	lg := zctx.From(ctx)

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusDraft {
		return nil, &InvalidStateError{Reason: "only DRAFT orders can be checked out"}
	}
	if len(o.Lines) == 0 {
		return nil, &InvalidStateError{Reason: "cannot checkout an empty order"}
	}
	if o.PaymentMode == "" {
		return nil, &InvalidStateError{Reason: "payment mode is required"}
	}

	o.applyTotals(ComputeTotals(o.Lines, o.Discount, o.PaymentMode, s.rates))

	lg.Info("Checkout started",
		zap.Stringer("order_id", o.ID),
		zap.String("invoice_number", o.InvoiceNumber),
		zap.String("payment_mode", string(o.PaymentMode)),
		zap.Int("lines", len(o.Lines)),
		zap.String("total", o.Total.String()),
	)

	result, err := s.fiscalizer.Fiscalize(ctx, o)
	if err != nil {
		lg.Error("Fiscalization failed, order stays DRAFT",
			zap.Stringer("order_id", o.ID), zap.Error(err))
		return nil, err
	}

	if result.Success {
		lg.Info("Fiscalization succeeded",
			zap.Stringer("order_id", o.ID),
			zap.String("fiscal_invoice_number", result.FiscalInvoiceNumber),
		)
	} else {
		lg.Warn("Fiscalization returned no fiscal number",
			zap.Stringer("order_id", o.ID), zap.String("message", result.Message))
	}

	o.FiscalInvoiceNumber = result.FiscalInvoiceNumber
	o.FiscalQRText = result.QRText
	o.FiscalVerificationURL = result.VerificationURL
	o.Status = StatusPaid

	if err := s.orders.FinalizeCheckout(ctx, o); err != nil {
		return nil, errors.Wrap(err, "finalize checkout")
	}
	s.checkoutMu.Delete(orderID)
	return o, nil
}

// recalcAndSave recomputes totals and persists the order header.
func (s *Service) recalcAndSave(ctx context.Context, o *Order) (*Order, error) {
	o.applyTotals(ComputeTotals(o.Lines, o.Discount, o.PaymentMode, s.rates))
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return o, nil
}

// lockOrder returns the per-order checkout mutex, creating it on first use.
func (s *Service) lockOrder(id uuid.UUID) *sync.Mutex {
	mu, _ := s.checkoutMu.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func findLine(o *Order, itemID uuid.UUID) *Line {
	for i := range o.Lines {
		if o.Lines[i].ItemID == itemID {
			return &o.Lines[i]
		}
	}
	return nil
}
