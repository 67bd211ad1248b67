package httpadapter

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleTrends returns the per-day AI component time series. The
// `time_window` query parameter accepts 7d, 30d or 90d; anything else
// falls back to 90d.
func (h *Handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	days := 90
	switch r.URL.Query().Get("time_window") {
	case "7d":
		days = 7
	case "30d":
		days = 30
	}
	points, err := h.svc.Trends(r.Context(), callerOrg(r), days)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, points)
}

func (h *Handler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.AttackVectorDistribution(r.Context(), callerOrg(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleSectorHeatmap(w http.ResponseWriter, r *http.Request) {
	cells, err := h.svc.SectorHeatmap(r.Context(), callerOrg(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cells)
}

func (h *Handler) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	opportunities, err := h.svc.CoordinationOpportunities(r.Context(), callerOrg(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, opportunities)
}

// handleExportSTIX returns one campaign as a STIX 2.1 bundle.
func (h *Handler) handleExportSTIX(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	bundle, err := h.svc.ExportCampaignSTIX(r.Context(), callerOrg(r), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bundle)
}

// handleBudget reports the caller's remaining query allowance.
func (h *Handler) handleBudget(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.QueryBudget(r.Context(), callerOrg(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}
