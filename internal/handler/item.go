package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pra-pos/internal/domain/item"
)

type itemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category,omitempty"`
	ItemCode  string          `json:"item_code,omitempty"`
	PCTCode   string          `json:"pct_code,omitempty"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toItemResponse(it *item.Item) itemResponse {
	return itemResponse{
		ID:        it.ID,
		Name:      it.Name,
		Price:     it.Price,
		Category:  it.Category,
		ItemCode:  it.ItemCode,
		PCTCode:   it.PCTCode,
		IsActive:  it.IsActive,
		CreatedAt: it.CreatedAt.UTC(),
		UpdatedAt: it.UpdatedAt.UTC(),
	}
}

type itemRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	ItemCode string          `json:"item_code"`
	PCTCode  string          `json:"pct_code"`
}

func (req itemRequest) toDomain() item.CreateRequest {
	return item.CreateRequest{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		ItemCode: req.ItemCode,
		PCTCode:  req.PCTCode,
	}
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("all") == "true"

	items, err := h.items.List(r.Context(), includeInactive)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]itemResponse, len(items))
	for i := range items {
		resp[i] = toItemResponse(&items[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.items.Create(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(it))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.items.Update(r.Context(), id, req.toDomain())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(it))
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.items.Deactivate(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.items.ToggleActive(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(it))
}
