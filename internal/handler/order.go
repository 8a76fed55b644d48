package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pra-pos/internal/domain/order"
)

type orderResponse struct {
	ID            uuid.UUID      `json:"id"`
	InvoiceNumber string         `json:"invoice_number"`
	Status        string         `json:"status"`
	PaymentMode   string         `json:"payment_mode,omitempty"`
	Lines         []lineResponse `json:"lines"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	GSTRate   decimal.Decimal `json:"gst_rate"`
	GSTAmount decimal.Decimal `json:"gst_amount"`
	Discount  decimal.Decimal `json:"discount"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerCNIC  string `json:"customer_cnic,omitempty"`
	CustomerPNTN  string `json:"customer_pntn,omitempty"`
	CustomerTaxID string `json:"customer_tax_id,omitempty"`
	Notes         string `json:"notes,omitempty"`

	FiscalInvoiceNumber   string `json:"fiscal_invoice_number,omitempty"`
	FiscalQRText          string `json:"fiscal_qr_text,omitempty"`
	FiscalVerificationURL string `json:"fiscal_verification_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type lineResponse struct {
	ID        uuid.UUID       `json:"id"`
	ItemID    uuid.UUID       `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

func toOrderResponse(o *order.Order) orderResponse {
	lines := make([]lineResponse, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = lineResponse{
			ID:        l.ID,
			ItemID:    l.ItemID,
			ItemName:  l.ItemName,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
		}
	}

	return orderResponse{
		ID:            o.ID,
		InvoiceNumber: o.InvoiceNumber,
		Status:        string(o.Status),
		PaymentMode:   string(o.PaymentMode),
		Lines:         lines,

		Subtotal:  o.Subtotal,
		Tax:       o.Tax,
		Total:     o.Total,
		GSTRate:   o.GSTRate,
		GSTAmount: o.GSTAmount,
		Discount:  o.Discount,

		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		CustomerCNIC:  o.CustomerCNIC,
		CustomerPNTN:  o.CustomerPNTN,
		CustomerTaxID: o.CustomerTaxID,
		Notes:         o.Notes,

		FiscalInvoiceNumber:   o.FiscalInvoiceNumber,
		FiscalQRText:          o.FiscalQRText,
		FiscalVerificationURL: o.FiscalVerificationURL,

		CreatedAt: o.CreatedAt.UTC(),
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Create(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var status order.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := order.ParseStatus(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	orders, err := h.orders.List(r.Context(), status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type updateOrderRequest struct {
	CustomerName  *string          `json:"customer_name"`
	CustomerPhone *string          `json:"customer_phone"`
	CustomerCNIC  *string          `json:"customer_cnic"`
	CustomerPNTN  *string          `json:"customer_pntn"`
	CustomerTaxID *string          `json:"customer_tax_id"`
	Notes         *string          `json:"notes"`
	Discount      *decimal.Decimal `json:"discount"`
	PaymentMode   *string          `json:"payment_mode"`
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req updateOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patch := order.Patch{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerCNIC:  req.CustomerCNIC,
		CustomerPNTN:  req.CustomerPNTN,
		CustomerTaxID: req.CustomerTaxID,
		Notes:         req.Notes,
		Discount:      req.Discount,
	}
	if req.PaymentMode != nil {
		mode, err := order.ParsePaymentMode(*req.PaymentMode)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		patch.PaymentMode = &mode
	}

	o, err := h.orders.Update(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type addLineRequest struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

func (h *Handler) addOrderLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req addLineRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ItemID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, "item_id is required")
		return
	}

	o, err := h.orders.AddOrUpdateLine(r.Context(), id, req.ItemID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) removeOrderLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	itemID, err := pathUUID(r, "itemID")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.RemoveLine(r.Context(), id, itemID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) checkoutOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.Checkout(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.Cancel(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
