package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
	"sentinelnet/internal/metrics"
)

// SharingService implements port.SharingUseCase. It orchestrates the
// submission path (validate, cluster, audit) and the budget-gated read
// paths (charge, fetch, filter, project, audit).
type SharingService struct {
	incidents port.IncidentRepository
	campaigns port.CampaignRepository
	orgs      port.OrganizationRepository
	audit     port.AuditRepository

	ledger    *BudgetLedger
	engine    *ClusterEngine
	projector *Projector
	metrics   *metrics.Metrics

	now func() time.Time
}

// NewSharingService wires the service with its collaborators.
func NewSharingService(
	incidents port.IncidentRepository,
	campaigns port.CampaignRepository,
	orgs port.OrganizationRepository,
	audit port.AuditRepository,
	ledger *BudgetLedger,
	engine *ClusterEngine,
	projector *Projector,
	m *metrics.Metrics,
) *SharingService {
	return &SharingService{
		incidents: incidents,
		campaigns: campaigns,
		orgs:      orgs,
		audit:     audit,
		ledger:    ledger,
		engine:    engine,
		projector: projector,
		metrics:   m,
		now:       time.Now,
	}
}

var _ port.SharingUseCase = (*SharingService)(nil)

// SubmitIncident validates and stores a report, assigns it to a campaign
// and writes the audit entry. A resubmission with the same (org, local_ref)
// replaces the descriptive fields; the campaign assignment, once made, is
// never changed.
func (s *SharingService) SubmitIncident(ctx context.Context, orgID string, sub port.IncidentSubmission) (*port.SubmitResult, error) {
	org, err := s.orgs.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrUnauthorized
	}

	in := &domain.Incident{
		ID:           uuid.NewString(),
		OrgID:        orgID,
		LocalRef:     sub.LocalRef,
		TimeStart:    sub.TimeStart,
		TimeEnd:      sub.TimeEnd,
		AttackVector: sub.AttackVector,
		AIComponents: sub.AIComponents,
		Techniques:   sub.Techniques,
		IOCs:         sub.IOCs,
		ImpactLevel:  sub.ImpactLevel,
		Summary:      sub.Summary,
		CreatedAt:    time.Now().UTC(),
	}
	if err = in.Validate(); err != nil {
		return nil, err
	}
	in.Normalize()

	existing, err := s.incidents.FindByOrgRef(ctx, orgID, in.LocalRef)
	if err != nil {
		return nil, err
	}

	var campaignID int64
	if existing != nil {
		in.ID = existing.ID
		in.CreatedAt = existing.CreatedAt
		in.CampaignID = existing.CampaignID
		if err = s.incidents.Update(ctx, in); err != nil {
			return nil, err
		}
		if existing.CampaignID != nil {
			campaignID = *existing.CampaignID
			if err = s.engine.ReMerge(ctx, campaignID, in); err != nil {
				return nil, err
			}
		} else if campaignID, err = s.engine.AssignCampaign(ctx, in, org); err != nil {
			return nil, err
		}
	} else {
		if err = s.incidents.Create(ctx, in); err != nil {
			return nil, err
		}
		if campaignID, err = s.engine.AssignCampaign(ctx, in, org); err != nil {
			return nil, err
		}
	}

	s.metrics.IncidentsSubmitted.Inc()
	err = s.audit.Append(ctx, &domain.AuditEntry{
		OrgID:       orgID,
		Action:      domain.ActionSubmitIncident,
		Params:      map[string]string{"incident_id": in.ID, "local_ref": in.LocalRef},
		ResultCount: 1,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &port.SubmitResult{IncidentID: in.ID, CampaignID: campaignID}, nil
}

// GetIncident returns a full incident to its owner. Not budget-gated: only
// campaign-level reads consume the allowance.
func (s *SharingService) GetIncident(ctx context.Context, orgID, incidentID string) (*domain.Incident, error) {
	in, err := s.incidents.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, domain.ErrNotFound
	}
	if in.OrgID != orgID {
		return nil, domain.ErrForbidden
	}
	return in, nil
}

// ListCampaigns returns projected campaign summaries. Sector/region
// membership is evaluated against the unprojected aggregate, so suppression
// never weakens filtering.
func (s *SharingService) ListCampaigns(ctx context.Context, orgID string, f port.CampaignFilters) ([]domain.CampaignView, error) {
	if err := s.charge(ctx, orgID); err != nil {
		return nil, err
	}

	campaigns, err := s.campaigns.List(ctx, f)
	if err != nil {
		return nil, err
	}

	views := make([]domain.CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		if f.Sector != nil && !c.HasSector(*f.Sector) {
			continue
		}
		if f.Region != nil && !c.HasRegion(*f.Region) {
			continue
		}
		views = append(views, s.projectSummary(c))
	}

	err = s.audit.Append(ctx, &domain.AuditEntry{
		OrgID:       orgID,
		Action:      domain.ActionListCampaigns,
		Params:      canonicalFilters(f),
		ResultCount: len(views),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// GetCampaign returns one projected campaign, including its sample IOCs.
func (s *SharingService) GetCampaign(ctx context.Context, orgID string, campaignID int64) (*domain.CampaignView, error) {
	if err := s.charge(ctx, orgID); err != nil {
		return nil, err
	}

	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}

	view := s.project(c)
	err = s.audit.Append(ctx, &domain.AuditEntry{
		OrgID:       orgID,
		Action:      domain.ActionGetCampaign,
		Params:      map[string]string{"campaign_id": strconv.FormatInt(campaignID, 10)},
		ResultCount: 1,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// AmIAlone reports whether the caller's incident is part of a wider
// campaign, with the projected summary when it is.
func (s *SharingService) AmIAlone(ctx context.Context, orgID, incidentID string) (*port.AmIAloneResult, error) {
	if err := s.charge(ctx, orgID); err != nil {
		return nil, err
	}

	in, err := s.incidents.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, domain.ErrNotFound
	}
	if in.OrgID != orgID {
		return nil, domain.ErrForbidden
	}

	result := &port.AmIAloneResult{}
	if in.CampaignID != nil {
		c, err := s.campaigns.Get(ctx, *in.CampaignID)
		if err != nil {
			return nil, err
		}
		if c != nil && (c.NumIncidents > 1 || c.NumOrgs > 1) {
			view := s.projectSummary(c)
			result.InCampaign = true
			result.Campaign = &view
		}
	}

	count := 0
	if result.InCampaign {
		count = 1
	}
	err = s.audit.Append(ctx, &domain.AuditEntry{
		OrgID:       orgID,
		Action:      domain.ActionAmIAlone,
		Params:      map[string]string{"incident_id": incidentID},
		ResultCount: count,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QueryBudget reports the caller's current allowance. Checking the budget
// never consumes it, and the check is not audited.
func (s *SharingService) QueryBudget(ctx context.Context, orgID string) (*port.BudgetStatus, error) {
	remaining, err := s.ledger.Remaining(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &port.BudgetStatus{Remaining: remaining}, nil
}

func (s *SharingService) charge(ctx context.Context, orgID string) error {
	allowed, err := s.ledger.TryCharge(ctx, orgID)
	if err != nil {
		return err
	}
	if !allowed {
		s.metrics.BudgetDenials.Inc()
		return domain.ErrBudgetExceeded
	}
	return nil
}

func (s *SharingService) project(c *domain.Campaign) domain.CampaignView {
	view, suppressed := s.projector.Project(c)
	if suppressed {
		s.metrics.SuppressedProjections.Inc()
	}
	return view
}

// projectSummary is the list/summary projection: same privacy rules, no
// sample IOCs.
func (s *SharingService) projectSummary(c *domain.Campaign) domain.CampaignView {
	view := s.project(c)
	view.SampleIOCs = nil
	return view
}

// canonicalFilters flattens the filter set into the stable string form
// recorded in the audit log. Unset filters are omitted.
func canonicalFilters(f port.CampaignFilters) map[string]string {
	params := make(map[string]string)
	if f.Sector != nil {
		params["sector"] = string(*f.Sector)
	}
	if f.Region != nil {
		params["region"] = string(*f.Region)
	}
	if f.AttackVector != nil {
		params["attack_vector"] = string(*f.AttackVector)
	}
	if f.Since != nil {
		params["since"] = f.Since.UTC().Format(time.RFC3339)
	}
	if f.Until != nil {
		params["until"] = f.Until.UTC().Format(time.RFC3339)
	}
	return params
}
