// Package handler exposes the REST surface: order lifecycle, item
// catalogue, daily sales report, fiscalization diagnostics, and probes.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/pra-pos/internal/domain/item"
	"github.com/xenking/pra-pos/internal/domain/order"
	"github.com/xenking/pra-pos/internal/domain/report"
	"github.com/xenking/pra-pos/internal/pra"
	"github.com/xenking/pra-pos/pkg/health"
)

// Handler wires the domain services into an http.ServeMux.
type Handler struct {
	orders  *order.Service
	items   *item.Service
	reports *report.Service
	client  pra.Client
	probes  *health.Service
}

// New constructs a Handler with the required domain dependencies.
func New(
	orders *order.Service,
	items *item.Service,
	reports *report.Service,
	client pra.Client,
	probes *health.Service,
) *Handler {
	return &Handler{
		orders:  orders,
		items:   items,
		reports: reports,
		client:  client,
		probes:  probes,
	}
}

// Routes registers every endpoint on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PATCH /api/orders/{id}", h.updateOrder)
	mux.HandleFunc("POST /api/orders/{id}/items", h.addOrderLine)
	mux.HandleFunc("DELETE /api/orders/{id}/items/{itemID}", h.removeOrderLine)
	mux.HandleFunc("POST /api/orders/{id}/checkout", h.checkoutOrder)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.cancelOrder)

	mux.HandleFunc("GET /api/items", h.listItems)
	mux.HandleFunc("POST /api/items", h.createItem)
	mux.HandleFunc("PUT /api/items/{id}", h.updateItem)
	mux.HandleFunc("DELETE /api/items/{id}", h.deleteItem)
	mux.HandleFunc("PATCH /api/items/{id}/toggle-active", h.toggleItem)

	mux.HandleFunc("GET /api/reports/daily-sales", h.dailySales)

	mux.HandleFunc("GET /api/pra/health", h.praHealth)
	mux.HandleFunc("POST /api/pra/fiscalize", h.praFiscalize)

	mux.HandleFunc("GET /livez", h.probes.LiveEndpoint)
	mux.HandleFunc("GET /readyz", h.probes.ReadyEndpoint)

	return mux
}

// apiError is the uniform error envelope for every non-2xx response.
type apiError struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, apiError{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   msg,
		Path:      r.URL.Path,
	})
}

// writeDomainError maps domain errors onto HTTP statuses: missing
// aggregates are 404, state and validation failures 400, an unreachable
// fiscal upstream 502, anything else a logged 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stateErr   *order.InvalidStateError
		itemErr    *pra.InvalidItemError
		unavailErr *pra.UnavailableError
	)

	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrLineNotFound),
		errors.Is(err, item.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.As(err, &stateErr),
		errors.As(err, &itemErr),
		errors.Is(err, item.ErrNameRequired),
		errors.Is(err, item.ErrInvalidPrice):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &unavailErr):
		writeError(w, r, http.StatusBadGateway, unavailErr.Reason)
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errors.Errorf("invalid %s: must be a UUID", name)
	}
	return id, nil
}
