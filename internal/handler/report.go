package handler

import (
	"net/http"
	"time"
)

func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
		return
	}

	sales, err := h.reports.DailySales(r.Context(), date)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}
