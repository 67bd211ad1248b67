package usecase

import (
	"context"
	"sort"
	"time"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
)

// Aggregator owns the mutable aggregate state of campaigns. Merge is a full
// recompute from the member incidents, which makes it idempotent: handing
// it the same incident twice leaves the aggregates unchanged.
type Aggregator struct {
	campaigns port.CampaignRepository
	incidents port.IncidentRepository
	orgs      port.OrganizationRepository

	sampleIOCLimit int
}

// NewAggregator wires the aggregator with its repositories.
func NewAggregator(
	campaigns port.CampaignRepository,
	incidents port.IncidentRepository,
	orgs port.OrganizationRepository,
	sampleIOCLimit int,
) *Aggregator {
	return &Aggregator{
		campaigns:      campaigns,
		incidents:      incidents,
		orgs:           orgs,
		sampleIOCLimit: sampleIOCLimit,
	}
}

// Merge applies incident in as a member of the campaign and recomputes the
// aggregates: distinct org count, incident count, observed window, the
// unions of AI components, sectors and regions, the canonical summary and
// the bounded sample IOC list. The incident must already carry the
// campaign assignment; it is folded in even when the repository read does
// not reflect it yet.
func (a *Aggregator) Merge(ctx context.Context, campaignID int64, in *domain.Incident) error {
	c, err := a.campaigns.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrNotFound
	}

	members, err := a.incidents.ListByCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	members = ensureMember(members, in)
	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})

	orgIDs := make(map[string]struct{})
	components := make(map[string]struct{})
	sectors := make(map[domain.Sector]struct{})
	regions := make(map[domain.Region]struct{})
	first, last := members[0].Window()
	longest := ""

	var samples []domain.IOC
	for _, m := range members {
		orgIDs[m.OrgID] = struct{}{}
		for _, t := range m.AIComponents {
			components[t] = struct{}{}
		}
		org, err := a.orgs.Get(ctx, m.OrgID)
		if err != nil {
			return err
		}
		if org != nil {
			sectors[org.Sector] = struct{}{}
			regions[org.Region] = struct{}{}
		}
		s, e := m.Window()
		if s.Before(first) {
			first = s
		}
		if e.After(last) {
			last = e
		}
		if len(m.Summary) > len(longest) {
			longest = m.Summary
		}
		samples = append(samples, m.IOCs...)
	}

	c.NumOrgs = len(orgIDs)
	c.NumIncidents = len(members)
	c.AIComponents = sortedStrings(components)
	c.Sectors = sortedSectors(sectors)
	c.Regions = sortedRegions(regions)
	c.FirstSeen = first
	c.LastSeen = last
	// The canonical summary tracks the most detailed member summary; the
	// seed template only stands in while every member summary is empty.
	if longest != "" {
		c.CanonicalSummary = longest
	}
	c.SampleIOCs = capIOCs(dedupeIOCs(samples), a.sampleIOCLimit)
	c.UpdatedAt = time.Now().UTC()

	return a.campaigns.Update(ctx, c)
}

// ensureMember folds in the just-assigned incident when the member listing
// predates its assignment, replacing any stale copy by id.
func ensureMember(members []*domain.Incident, in *domain.Incident) []*domain.Incident {
	for i, m := range members {
		if m.ID == in.ID {
			members[i] = in
			return members
		}
	}
	return append(members, in)
}

// dedupeIOCs keeps the first occurrence of each (kind, value) pair,
// preserving order.
func dedupeIOCs(iocs []domain.IOC) []domain.IOC {
	seen := make(map[string]struct{}, len(iocs))
	out := make([]domain.IOC, 0, len(iocs))
	for _, ioc := range iocs {
		if _, ok := seen[ioc.Key()]; ok {
			continue
		}
		seen[ioc.Key()] = struct{}{}
		out = append(out, ioc)
	}
	return out
}

// capIOCs bounds the sample list, discarding the oldest entries first.
func capIOCs(iocs []domain.IOC, limit int) []domain.IOC {
	if limit <= 0 || len(iocs) <= limit {
		return iocs
	}
	return iocs[len(iocs)-limit:]
}

func sortedStrings(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedSectors(set map[domain.Sector]struct{}) []domain.Sector {
	out := make([]domain.Sector, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedRegions(set map[domain.Region]struct{}) []domain.Region {
	out := make([]domain.Region, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
