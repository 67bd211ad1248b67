package usecase

import (
	"sentinelnet/internal/core/domain"
)

// Projector turns internal campaign state into an externally safe view. It
// is pure and stateless: the same campaign always yields the same view for
// a given threshold. Organization identifiers are never part of a view,
// regardless of the threshold.
type Projector struct {
	// K is the k-anonymity threshold: sectors and regions are disclosed
	// only when a campaign spans at least K distinct organizations.
	K int
}

// NewProjector returns a projector with the given k-anonymity threshold.
func NewProjector(k int) *Projector {
	return &Projector{K: k}
}

// Project copies the aggregate fields into a view, replacing sectors and
// regions with empty sets when the campaign is below the threshold. The
// underlying aggregate is never modified. The second return value reports
// whether suppression was applied.
func (p *Projector) Project(c *domain.Campaign) (domain.CampaignView, bool) {
	view := domain.CampaignView{
		ID:                  c.ID,
		PrimaryAttackVector: c.PrimaryAttackVector,
		AIComponents:        append([]string(nil), c.AIComponents...),
		NumOrgs:             c.NumOrgs,
		NumIncidents:        c.NumIncidents,
		FirstSeen:           c.FirstSeen,
		LastSeen:            c.LastSeen,
		Sectors:             []domain.Sector{},
		Regions:             []domain.Region{},
		CanonicalSummary:    c.CanonicalSummary,
		SampleIOCs:          append([]domain.IOC(nil), c.SampleIOCs...),
	}
	if c.NumOrgs >= p.K {
		view.Sectors = append(view.Sectors, c.Sectors...)
		view.Regions = append(view.Regions, c.Regions...)
		return view, false
	}
	return view, true
}
