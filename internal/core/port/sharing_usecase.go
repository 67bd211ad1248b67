package port

import (
	"context"
	"time"

	"sentinelnet/internal/core/domain"
)

// SharingUseCase is the primary port into the sharing core. Callers hand in
// an already-resolved, trusted organization id; authentication happens in
// the inbound adapter.
type SharingUseCase interface {
	// SubmitIncident validates, stores and clusters a report. Resubmitting
	// the same (org, local_ref) replaces the descriptive fields but keeps
	// the original campaign assignment. Audited, not budget-gated.
	SubmitIncident(ctx context.Context, orgID string, sub IncidentSubmission) (*SubmitResult, error)

	// GetIncident returns a full incident, only to its owning organization.
	GetIncident(ctx context.Context, orgID, incidentID string) (*domain.Incident, error)

	// ListCampaigns returns projected campaign summaries matching the
	// filters. Budget-gated and audited.
	ListCampaigns(ctx context.Context, orgID string, f CampaignFilters) ([]domain.CampaignView, error)

	// GetCampaign returns one projected campaign with its sample IOCs.
	// Budget-gated and audited.
	GetCampaign(ctx context.Context, orgID string, campaignID int64) (*domain.CampaignView, error)

	// AmIAlone reports whether the caller's incident is part of a wider
	// campaign. Budget-gated and audited.
	AmIAlone(ctx context.Context, orgID, incidentID string) (*AmIAloneResult, error)

	// Trends returns per-day AI component counts over the last days days.
	// Budget-gated and audited.
	Trends(ctx context.Context, orgID string, days int) ([]TrendPoint, error)

	// AttackVectorDistribution returns per-campaign member counts and
	// average impact. Budget-gated and audited.
	AttackVectorDistribution(ctx context.Context, orgID string) ([]DistributionItem, error)

	// SectorHeatmap returns sector-by-attack-vector incident counts for
	// campaigns at or above the k-anonymity threshold. Budget-gated and
	// audited.
	SectorHeatmap(ctx context.Context, orgID string) ([]HeatmapCell, error)

	// CoordinationOpportunities returns campaigns ranked worth coordinating
	// on. Budget-gated and audited.
	CoordinationOpportunities(ctx context.Context, orgID string) ([]CoordinationOpportunity, error)

	// ExportCampaignSTIX serializes one campaign as a STIX 2.1 bundle.
	// Budget-gated and audited.
	ExportCampaignSTIX(ctx context.Context, orgID string, campaignID int64) (*STIXBundle, error)

	// QueryBudget reports the caller's remaining allowance without
	// consuming it.
	QueryBudget(ctx context.Context, orgID string) (*BudgetStatus, error)
}

// IncidentSubmission carries the caller-supplied fields of a report. It is a
// DTO for the inbound adapter and has no behaviour.
type IncidentSubmission struct {
	LocalRef     string
	TimeStart    time.Time
	TimeEnd      *time.Time
	AttackVector domain.AttackVector
	AIComponents []string
	Techniques   []string
	IOCs         []domain.IOC
	ImpactLevel  domain.ImpactLevel
	Summary      string
}

// SubmitResult is returned from SubmitIncident.
type SubmitResult struct {
	IncidentID string `json:"incident_id"`
	CampaignID int64  `json:"campaign_id"`
}

// CampaignFilters narrows campaign listings. Filters match against the
// unprojected aggregate, so suppression never weakens filtering.
type CampaignFilters struct {
	Sector       *domain.Sector
	Region       *domain.Region
	AttackVector *domain.AttackVector
	Since        *time.Time // last_seen >= Since
	Until        *time.Time // first_seen <= Until
}

// AmIAloneResult is returned from AmIAlone. Campaign is set only when the
// incident's campaign has more than one incident or organization.
type AmIAloneResult struct {
	InCampaign bool                 `json:"in_campaign"`
	Campaign   *domain.CampaignView `json:"campaign,omitempty"`
}

// TrendPoint is one day of AI component counts. The tracked components are
// fixed columns; anything else lands in Other.
type TrendPoint struct {
	Date            string `json:"time"`
	LLMContent      int    `json:"llm_content"`
	DeepfakeAudio   int    `json:"deepfake_audio"`
	DeepfakeVideo   int    `json:"deepfake_video"`
	AICodeAssistant int    `json:"ai_code_assistant"`
	LLMInference    int    `json:"llm_inference"`
	Other           int    `json:"other"`
}

// DistributionItem is one campaign's slice of the attack-vector
// distribution.
type DistributionItem struct {
	AttackVector domain.AttackVector `json:"attack_vector"`
	Count        int                 `json:"count"`
	AvgImpact    domain.ImpactLevel  `json:"avg_impact"`
}

// HeatmapCell counts incidents from one sector under one attack vector.
type HeatmapCell struct {
	Sector       domain.Sector       `json:"sector"`
	AttackVector domain.AttackVector `json:"attack_vector"`
	Count        int                 `json:"count"`
}

// CoordinationOpportunity is a campaign ranked by how urgently it needs
// cross-organization coordination.
type CoordinationOpportunity struct {
	CampaignID   int64               `json:"campaign_id"`
	CampaignName string              `json:"campaign_name"`
	Priority     string              `json:"priority"`
	NumOrgs      int                 `json:"num_orgs"`
	NumIncidents int                 `json:"num_incidents"`
	LastSeen     time.Time           `json:"last_seen"`
	AttackVector domain.AttackVector `json:"attack_vector"`
}

// STIXObject is one object inside a STIX 2.1 bundle.
type STIXObject map[string]any

// STIXBundle is a STIX 2.1 bundle of campaign, attack-pattern, indicator
// and relationship objects.
type STIXBundle struct {
	Type    string       `json:"type"`
	ID      string       `json:"id"`
	Objects []STIXObject `json:"objects"`
}

// BudgetStatus reports an organization's remaining query allowance.
type BudgetStatus struct {
	Remaining int `json:"remaining"`
}
