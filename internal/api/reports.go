package api

import (
	"net/http"

	"libreriapos/m/domain"
)

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Reports.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	top, err := h.Reports.TopSellers(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, top)
}

func (h *Handler) dailySummary(w http.ResponseWriter, r *http.Request) {
	days, err := h.Reports.Daily(r.Context(), queryInt(r, "days"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, days)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Reports.LowStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) stockMovements(w http.ResponseWriter, r *http.Request) {
	moves, err := h.Reports.StockMovements(r.Context(), int64(queryInt(r, "producto_id")), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, moves)
}

// Backups

func (h *Handler) listBackups(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	files, err := h.Backups.List()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, files)
}

func (h *Handler) createBackup(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	f, err := h.Backups.Create(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}
