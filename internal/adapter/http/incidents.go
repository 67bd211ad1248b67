package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
)

// submitIncidentRequest is the JSON body of POST /incidents.
type submitIncidentRequest struct {
	LocalRef     string       `json:"local_ref"`
	TimeStart    time.Time    `json:"time_start"`
	TimeEnd      *time.Time   `json:"time_end,omitempty"`
	AttackVector string       `json:"attack_vector"`
	AIComponents []string     `json:"ai_components"`
	Techniques   []string     `json:"techniques"`
	IOCs         []domain.IOC `json:"iocs"`
	ImpactLevel  string       `json:"impact_level"`
	Summary      string       `json:"summary"`
}

// incidentResponse is the owner-only full view of an incident.
type incidentResponse struct {
	ID           string       `json:"id"`
	OrgID        string       `json:"org_id"`
	LocalRef     string       `json:"local_ref"`
	TimeStart    time.Time    `json:"time_start"`
	TimeEnd      *time.Time   `json:"time_end,omitempty"`
	AttackVector string       `json:"attack_vector"`
	AIComponents []string     `json:"ai_components"`
	Techniques   []string     `json:"techniques"`
	IOCs         []domain.IOC `json:"iocs"`
	ImpactLevel  string       `json:"impact_level"`
	Summary      string       `json:"summary"`
	CampaignID   *int64       `json:"campaign_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// handleSubmitIncident accepts a report, runs clustering and returns the
// assigned campaign id.
func (h *Handler) handleSubmitIncident(w http.ResponseWriter, r *http.Request) {
	var req submitIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	result, err := h.svc.SubmitIncident(r.Context(), callerOrg(r), port.IncidentSubmission{
		LocalRef:     req.LocalRef,
		TimeStart:    req.TimeStart,
		TimeEnd:      req.TimeEnd,
		AttackVector: domain.AttackVector(req.AttackVector),
		AIComponents: req.AIComponents,
		Techniques:   req.Techniques,
		IOCs:         req.IOCs,
		ImpactLevel:  domain.ImpactLevel(req.ImpactLevel),
		Summary:      req.Summary,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// handleGetIncident returns a full incident, only to its owner.
func (h *Handler) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	in, err := h.svc.GetIncident(r.Context(), callerOrg(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, incidentResponse{
		ID:           in.ID,
		OrgID:        in.OrgID,
		LocalRef:     in.LocalRef,
		TimeStart:    in.TimeStart,
		TimeEnd:      in.TimeEnd,
		AttackVector: string(in.AttackVector),
		AIComponents: in.AIComponents,
		Techniques:   in.Techniques,
		IOCs:         in.IOCs,
		ImpactLevel:  string(in.ImpactLevel),
		Summary:      in.Summary,
		CampaignID:   in.CampaignID,
		CreatedAt:    in.CreatedAt,
	})
}
