package httpadapter

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
)

// handleListCampaigns returns projected campaign summaries. It accepts
// optional `sector`, `region`, `attack_vector`, `since` and `until`
// (RFC3339) query parameters. Invalid filter values result in HTTP 400.
func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	var (
		q = r.URL.Query()
		f port.CampaignFilters
	)

	if v := q.Get("sector"); v != "" {
		sector := domain.Sector(v)
		if !sector.Valid() {
			http.Error(w, "invalid sector", http.StatusBadRequest)
			return
		}
		f.Sector = &sector
	}
	if v := q.Get("region"); v != "" {
		region := domain.Region(v)
		if !region.Valid() {
			http.Error(w, "invalid region", http.StatusBadRequest)
			return
		}
		f.Region = &region
	}
	if v := q.Get("attack_vector"); v != "" {
		vector := domain.AttackVector(v)
		if !vector.Valid() {
			http.Error(w, "invalid attack_vector", http.StatusBadRequest)
			return
		}
		f.AttackVector = &vector
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid 'since' timestamp", http.StatusBadRequest)
			return
		}
		f.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid 'until' timestamp", http.StatusBadRequest)
			return
		}
		f.Until = &t
	}

	views, err := h.svc.ListCampaigns(r.Context(), callerOrg(r), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, views)
}

// handleGetCampaign returns one projected campaign with its sample IOCs.
func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	view, err := h.svc.GetCampaign(r.Context(), callerOrg(r), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// handleAmIAlone reports whether the caller's incident belongs to a wider
// campaign.
func (h *Handler) handleAmIAlone(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.AmIAlone(r.Context(), callerOrg(r), chi.URLParam(r, "incidentID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}
