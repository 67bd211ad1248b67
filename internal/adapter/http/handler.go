package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
)

// Handler is the inbound HTTP adapter. It authenticates callers, decodes
// requests, invokes the sharing usecase and maps domain errors onto HTTP
// status codes.
type Handler struct {
	svc    port.SharingUseCase
	orgs   port.OrganizationRepository
	logger *slog.Logger
	router chi.Router
	auth   *authenticator
}

// NewHandler creates a handler with all routes configured. The registry is
// exposed on /metrics.
func NewHandler(svc port.SharingUseCase, orgs port.OrganizationRepository, logger *slog.Logger, registry *prometheus.Registry) *Handler {
	h := &Handler{
		svc:    svc,
		orgs:   orgs,
		logger: logger,
		auth:   newAuthenticator(orgs),
	}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.authenticate)
		r.Post("/incidents", h.handleSubmitIncident)
		r.Get("/incidents/{id}", h.handleGetIncident)
		r.Get("/campaigns", h.handleListCampaigns)
		r.Get("/campaigns/am-i-alone/{incidentID}", h.handleAmIAlone)
		r.Get("/campaigns/{id}", h.handleGetCampaign)
		r.Get("/campaigns/{id}/stix", h.handleExportSTIX)
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/trends", h.handleTrends)
			r.Get("/distribution", h.handleDistribution)
			r.Get("/sector-heatmap", h.handleSectorHeatmap)
			r.Get("/opportunities", h.handleOpportunities)
		})
		r.Get("/budget", h.handleBudget)
	})
	r.Get("/health", h.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}

// writeError translates the core's error taxonomy. Internal details are
// logged, never echoed: error bodies carry only the category.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrBudgetExceeded):
		http.Error(w, "query budget exhausted, wait for the reset window", http.StatusTooManyRequests)
	case errors.Is(err, domain.ErrContention):
		http.Error(w, "busy, retry", http.StatusServiceUnavailable)
	default:
		h.logger.Error("internal error", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
