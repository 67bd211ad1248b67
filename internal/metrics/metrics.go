package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters exported by the sharing core. Register them
// once against a Registerer; the HTTP adapter exposes them on /metrics.
type Metrics struct {
	IncidentsSubmitted    prometheus.Counter
	CampaignsCreated      prometheus.Counter
	CampaignsJoined       prometheus.Counter
	BudgetDenials         prometheus.Counter
	SuppressedProjections prometheus.Counter
}

// New creates and registers the core counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IncidentsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinelnet_incidents_submitted_total",
			Help: "Incident reports accepted and clustered.",
		}),
		CampaignsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinelnet_campaigns_created_total",
			Help: "New campaigns created because no existing campaign matched.",
		}),
		CampaignsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinelnet_campaigns_joined_total",
			Help: "Incidents that joined an existing campaign.",
		}),
		BudgetDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinelnet_budget_denials_total",
			Help: "Reads denied because the organization's query budget was exhausted.",
		}),
		SuppressedProjections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinelnet_suppressed_projections_total",
			Help: "Campaign projections with sector/region data suppressed below the k-anonymity threshold.",
		}),
	}
	reg.MustRegister(
		m.IncidentsSubmitted,
		m.CampaignsCreated,
		m.CampaignsJoined,
		m.BudgetDenials,
		m.SuppressedProjections,
	)
	return m
}
