package port

import (
	"context"
	"time"

	"sentinelnet/internal/core/domain"
)

// IncidentRepository is the outbound port for incident persistence.
// Implementations must provide read-your-writes consistency within a
// process. Lookup methods return (nil, nil) when no row exists.
type IncidentRepository interface {
	Create(ctx context.Context, in *domain.Incident) error
	// Update replaces the descriptive fields of an existing incident. It
	// never touches the campaign assignment.
	Update(ctx context.Context, in *domain.Incident) error
	Get(ctx context.Context, id string) (*domain.Incident, error)
	// FindByOrgRef resolves the (org, local_ref) uniqueness used for
	// duplicate-submission detection.
	FindByOrgRef(ctx context.Context, orgID, localRef string) (*domain.Incident, error)
	// AssignCampaign performs the one-time campaign assignment.
	AssignCampaign(ctx context.Context, incidentID string, campaignID int64) error
	ListByCampaign(ctx context.Context, campaignID int64) ([]*domain.Incident, error)
	// ListInWindow returns incidents whose time_start falls in [from, to],
	// ordered by time_start.
	ListInWindow(ctx context.Context, from, to time.Time) ([]*domain.Incident, error)
}

// CampaignRepository is the outbound port for campaign aggregate state.
type CampaignRepository interface {
	// Create persists a new campaign and fills in its assigned id.
	Create(ctx context.Context, c *domain.Campaign) error
	Update(ctx context.Context, c *domain.Campaign) error
	Get(ctx context.Context, id int64) (*domain.Campaign, error)
	// Candidates returns campaigns with the given attack vector whose
	// observed window touches [from, to] (last_seen >= from and
	// first_seen <= to), ordered by id.
	Candidates(ctx context.Context, vector domain.AttackVector, from, to time.Time) ([]*domain.Campaign, error)
	// List returns campaigns matching the pushed-down filters, ordered by
	// id. Sector/region membership is evaluated by the caller against the
	// unprojected aggregate.
	List(ctx context.Context, f CampaignFilters) ([]*domain.Campaign, error)
}

// OrganizationRepository looks up organization profiles.
type OrganizationRepository interface {
	Get(ctx context.Context, id string) (*domain.Organization, error)
	List(ctx context.Context) ([]*domain.Organization, error)
}

// BudgetRepository persists per-organization budget records. Get returns
// (nil, nil) when the organization has never been charged.
type BudgetRepository interface {
	Get(ctx context.Context, orgID string) (*domain.BudgetRecord, error)
	Save(ctx context.Context, rec *domain.BudgetRecord) error
}

// AuditRepository appends to the immutable audit log. Entries are never
// updated or removed.
type AuditRepository interface {
	Append(ctx context.Context, e *domain.AuditEntry) error
}
