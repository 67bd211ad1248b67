package domain

import "time"

// Organization is a participating reporter. Its sector and region seed the
// campaign aggregates of the incidents it submits. The API key hash is used
// only by the HTTP auth middleware; the core trusts a resolved org id.
type Organization struct {
	ID          string // e.g. "org_alice"
	DisplayName string
	Sector      Sector
	Region      Region
	APIKeyHash  string
	CreatedAt   time.Time
}

// BudgetRecord tracks an organization's rolling daily query allowance. A
// 24-hour window opens on the first charge; once the window ends the next
// charge resets Remaining to the configured default.
type BudgetRecord struct {
	OrgID       string
	Remaining   int // never negative
	WindowStart time.Time
	WindowEnd   time.Time
}

// AuditEntry is one immutable line of the append-only audit log.
type AuditEntry struct {
	ID          int64
	OrgID       string
	Action      string
	Params      map[string]string // canonicalized filters/parameters
	ResultCount int
	CreatedAt   time.Time
}

// Audit action kinds.
const (
	ActionSubmitIncident    = "submit_incident"
	ActionListCampaigns     = "list_campaigns"
	ActionGetCampaign       = "get_campaign"
	ActionAmIAlone          = "am_i_alone"
	ActionViewTrends        = "view_trends"
	ActionViewDistribution  = "view_distribution"
	ActionViewHeatmap       = "view_heatmap"
	ActionViewOpportunities = "view_opportunities"
	ActionExportSTIX        = "export_stix"
)
