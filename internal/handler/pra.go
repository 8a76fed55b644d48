package handler

import (
	"net/http"

	"github.com/xenking/pra-pos/internal/pra"
)

// praHealth reports the fiscalization client's own health, independent of
// the service probes: it answers "could a checkout fiscalize right now".
func (h *Handler) praHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	hc := h.client.Health(r.Context())
	if hc.Status != pra.StatusOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, hc)
}

// praFiscalize submits a caller-supplied invoice directly to the
// fiscalization client. Diagnostic only: it bypasses orders entirely, so
// nothing is persisted.
func (h *Handler) praFiscalize(w http.ResponseWriter, r *http.Request) {
	var inv pra.Invoice
	if err := decodeBody(r, &inv); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.client.Fiscalize(r.Context(), &inv)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
