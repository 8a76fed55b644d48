package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pra-pos/internal/domain/order"
	"github.com/xenking/pra-pos/internal/domain/report"
)

var (
	_ order.Repository  = (*OrderRepository)(nil)
	_ report.Repository = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository backed by PostgreSQL.
// Order lines are read joined with the item catalogue so the fiscal
// mapper sees current item codes without a second round-trip.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order header.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO orders (id, invoice_number, status, payment_mode,
		                     subtotal, tax, total, gst_rate, gst_amount, discount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		o.ID, o.InvoiceNumber, o.Status, nullIfEmpty(string(o.PaymentMode)),
		o.Subtotal, o.Tax, o.Total, o.GSTRate, o.GSTAmount, o.Discount,
	).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.InvoiceNumber, err)
	}
	return nil
}

// GetByID loads an order with its lines, or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	lines, err := r.loadLines(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[id]
	return &o, nil
}

// List returns orders newest-first, with lines, optionally filtered by
// status (empty means all).
func (r *OrderRepository) List(ctx context.Context, status order.Status) ([]order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		 WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []order.Order
		ids    []uuid.UUID
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

// Update persists the mutable header fields: status, payment mode,
// customer data, notes, discount, and totals.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders
		 SET status = $2, payment_mode = $3,
		     subtotal = $4, tax = $5, total = $6, gst_rate = $7, gst_amount = $8, discount = $9,
		     customer_name = $10, customer_phone = $11, customer_cnic = $12,
		     customer_pntn = $13, customer_tax_id = $14, notes = $15
		 WHERE id = $1`,
		o.ID, o.Status, nullIfEmpty(string(o.PaymentMode)),
		o.Subtotal, o.Tax, o.Total, o.GSTRate, o.GSTAmount, o.Discount,
		nullIfEmpty(o.CustomerName), nullIfEmpty(o.CustomerPhone), nullIfEmpty(o.CustomerCNIC),
		nullIfEmpty(o.CustomerPNTN), nullIfEmpty(o.CustomerTaxID), nullIfEmpty(o.Notes),
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SaveLine upserts an order line keyed by (order_id, item_id).
func (r *OrderRepository) SaveLine(ctx context.Context, orderID uuid.UUID, l *order.Line) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO order_lines (id, order_id, item_id, quantity, unit_price, line_total)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (order_id, item_id)
		 DO UPDATE SET quantity = $4, unit_price = $5, line_total = $6`,
		l.ID, orderID, l.ItemID, l.Quantity, l.UnitPrice, l.LineTotal,
	)
	if err != nil {
		return fmt.Errorf("saving line for order %q: %w", orderID, err)
	}
	return nil
}

// DeleteLine removes one line from an order.
func (r *OrderRepository) DeleteLine(ctx context.Context, orderID, lineID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM order_lines WHERE order_id = $1 AND id = $2`, orderID, lineID)
	if err != nil {
		return fmt.Errorf("deleting line %q: %w", lineID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrLineNotFound
	}
	return nil
}

// FinalizeCheckout writes totals, fiscal fields, and the PAID status in a
// single statement, guarded on the order still being DRAFT.
func (r *OrderRepository) FinalizeCheckout(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders
		 SET status = $2,
		     subtotal = $3, tax = $4, total = $5, gst_rate = $6, gst_amount = $7,
		     fiscal_invoice_number = $8, fiscal_qr_text = $9, fiscal_verification_url = $10
		 WHERE id = $1 AND status = 'DRAFT'`,
		o.ID, o.Status,
		o.Subtotal, o.Tax, o.Total, o.GSTRate, o.GSTAmount,
		nullIfEmpty(o.FiscalInvoiceNumber), nullIfEmpty(o.FiscalQRText), nullIfEmpty(o.FiscalVerificationURL),
	)
	if err != nil {
		return fmt.Errorf("finalizing order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &order.InvalidStateError{Reason: "order is no longer DRAFT"}
	}
	return nil
}

// PaidSalesBetween implements report.Repository.
func (r *OrderRepository) PaidSalesBetween(ctx context.Context, from, to time.Time) (int, decimal.Decimal, error) {
	var (
		count int
		total decimal.Decimal
	)
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total), 0)
		 FROM orders
		 WHERE status = 'PAID' AND created_at >= $1 AND created_at < $2`,
		from, to,
	).Scan(&count, &total)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("querying paid sales: %w", err)
	}
	return count, total, nil
}

const orderColumns = `id, invoice_number, status, payment_mode,
	subtotal, tax, total, gst_rate, gst_amount, discount,
	customer_name, customer_phone, customer_cnic, customer_pntn, customer_tax_id, notes,
	fiscal_invoice_number, fiscal_qr_text, fiscal_verification_url, created_at`

func scanOrder(row pgx.Row) (order.Order, error) {
	var (
		o           order.Order
		paymentMode *string
		nullable    [9]*string
	)
	err := row.Scan(
		&o.ID, &o.InvoiceNumber, &o.Status, &paymentMode,
		&o.Subtotal, &o.Tax, &o.Total, &o.GSTRate, &o.GSTAmount, &o.Discount,
		&nullable[0], &nullable[1], &nullable[2], &nullable[3], &nullable[4], &nullable[5],
		&nullable[6], &nullable[7], &nullable[8], &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	if paymentMode != nil {
		o.PaymentMode = order.PaymentMode(*paymentMode)
	}
	o.CustomerName = deref(nullable[0])
	o.CustomerPhone = deref(nullable[1])
	o.CustomerCNIC = deref(nullable[2])
	o.CustomerPNTN = deref(nullable[3])
	o.CustomerTaxID = deref(nullable[4])
	o.Notes = deref(nullable[5])
	o.FiscalInvoiceNumber = deref(nullable[6])
	o.FiscalQRText = deref(nullable[7])
	o.FiscalVerificationURL = deref(nullable[8])
	return o, nil
}

// loadLines fetches lines for the given orders joined with their items,
// grouped by order id.
func (r *OrderRepository) loadLines(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]order.Line, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT l.order_id, l.id, l.item_id, i.name, i.item_code, i.pct_code,
		        l.quantity, l.unit_price, l.line_total
		 FROM order_lines l
		 JOIN items i ON i.id = l.item_id
		 WHERE l.order_id = ANY($1)
		 ORDER BY i.name`,
		orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("loading order lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[uuid.UUID][]order.Line)
	for rows.Next() {
		var (
			orderID uuid.UUID
			l       order.Line
		)
		if err := rows.Scan(
			&orderID, &l.ID, &l.ItemID, &l.ItemName, &l.ItemCode, &l.PCTCode,
			&l.Quantity, &l.UnitPrice, &l.LineTotal,
		); err != nil {
			return nil, err
		}
		lines[orderID] = append(lines[orderID], l)
	}
	return lines, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
