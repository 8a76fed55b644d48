// Package order holds the order aggregate and the checkout state machine.
//
// An order starts as DRAFT, accumulates lines snapshotted from the item
// catalogue, and leaves DRAFT exactly once: checkout moves it to PAID
// (after fiscalization), cancel moves it to CANCELLED. Both end states are
// terminal.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus validates a status string from external input.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(s)) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusPaid:
		return StatusPaid, nil
	case StatusCancelled:
		return StatusCancelled, nil
	}
	return "", errors.Errorf("unknown order status %q", s)
}

// PaymentMode selects the GST regime applied at checkout.
type PaymentMode string

const (
	PaymentCash PaymentMode = "CASH"
	PaymentCard PaymentMode = "CARD"
)

// ParsePaymentMode validates a payment mode string from external input.
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch PaymentMode(strings.ToUpper(s)) {
	case PaymentCash:
		return PaymentCash, nil
	case PaymentCard:
		return PaymentCard, nil
	}
	return "", errors.Errorf("unknown payment mode %q", s)
}

// ErrNotFound is returned when no order exists for the given id.
var ErrNotFound = errors.New("order not found")

// ErrLineNotFound is returned when an order has no line for the given item.
var ErrLineNotFound = errors.New("order line not found")

// InvalidStateError indicates an operation that the order's current state
// does not permit (wrong status, empty order, missing payment mode).
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}

// Order is the aggregate root. Monetary fields are scale-2 decimals kept
// consistent by ComputeTotals; fiscal fields are set once, when the order
// transitions to PAID.
type Order struct {
	ID            uuid.UUID
	InvoiceNumber string
	Status        Status
	PaymentMode   PaymentMode
	Lines         []Line

	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	GSTRate   decimal.Decimal
	GSTAmount decimal.Decimal
	Discount  decimal.Decimal

	CustomerName  string
	CustomerPhone string
	CustomerCNIC  string
	CustomerPNTN  string
	CustomerTaxID string
	Notes         string

	FiscalInvoiceNumber   string
	FiscalQRText          string
	FiscalVerificationURL string

	CreatedAt time.Time
}

// Line is one order position. UnitPrice snapshots the item price at
// add-time; the item_code/PCT code snapshots feed the fiscal invoice
// without a catalogue round-trip at checkout.
type Line struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	ItemName  string
	ItemCode  string
	PCTCode   string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Repository defines persistence operations for orders.
//
// FinalizeCheckout must persist totals, fiscal fields, and the PAID status
// atomically; a failed fiscalization never reaches it, so a crash mid-call
// leaves the order DRAFT and retryable.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, status Status) ([]Order, error)
	Update(ctx context.Context, o *Order) error
	SaveLine(ctx context.Context, orderID uuid.UUID, l *Line) error
	DeleteLine(ctx context.Context, orderID, lineID uuid.UUID) error
	FinalizeCheckout(ctx context.Context, o *Order) error
}

// FiscalResult carries the outcome of a fiscalization attempt. Success=false
// with a message (rather than an error) means the upstream was reachable
// but did not issue a fiscal number, e.g. missing credentials.
type FiscalResult struct {
	Success             bool
	FiscalInvoiceNumber string
	QRText              string
	VerificationURL     string
	Message             string
}

// Fiscalizer submits an order to the tax authority. Implementations return
// a typed unavailability error when the upstream cannot be reached, which
// aborts checkout without a state change.
type Fiscalizer interface {
	Fiscalize(ctx context.Context, o *Order) (*FiscalResult, error)
}

// NewInvoiceNumber generates a USIN of the form INV-YYYYMMDD-XXXXXXXX,
// where the suffix is the first 8 hex digits of a random UUID, uppercased.
func NewInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("INV-%s-%s", now.UTC().Format("20060102"), suffix)
}
