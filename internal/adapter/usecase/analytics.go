package usecase

import (
	"context"
	"sort"
	"strconv"
	"time"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
)

const defaultTrendDays = 90

// Trends returns per-day counts of AI component mentions across all
// incidents reported in the last days days. Components outside the tracked
// set fall into the "other" bucket. Budget-gated and audited.
func (s *SharingService) Trends(ctx context.Context, orgID string, days int) ([]port.TrendPoint, error) {
	if err := s.charge(ctx, orgID); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultTrendDays
	}

	now := s.now().UTC()
	incidents, err := s.incidents.ListInWindow(ctx, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*port.TrendPoint)
	for _, in := range incidents {
		key := in.TimeStart.UTC().Format("2006-01-02")
		p, ok := buckets[key]
		if !ok {
			p = &port.TrendPoint{Date: key}
			buckets[key] = p
		}
		for _, comp := range in.AIComponents {
			switch comp {
			case "llm_content":
				p.LLMContent++
			case "deepfake_audio":
				p.DeepfakeAudio++
			case "deepfake_video":
				p.DeepfakeVideo++
			case "ai_code_assistant":
				p.AICodeAssistant++
			case "llm_inference":
				p.LLMInference++
			default:
				p.Other++
			}
		}
	}

	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	points := make([]port.TrendPoint, 0, len(dates))
	for _, d := range dates {
		points = append(points, *buckets[d])
	}

	err = s.audit.Append(ctx, &domain.AuditEntry{
		OrgID:       orgID,
		Action:      domain.ActionViewTrends,
		Params:      map[string]string{"window_days": strconv.Itoa(days)},
		ResultCount: len(points),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// AttackVectorDistribution returns, per campaign with at least one member,
// the member count and the average impact level of its incidents.
// Budget-gated and audited.
func (s *SharingService) AttackVectorDistribution(ctx context.Context, orgID string) ([]port.DistributionItem, error) {
	if err := s.charge(ctx, orgID); err != nil {
		return nil, err
	}

	campaigns, err := s.campaigns.List(ctx, port.CampaignFilters{})
	if err != nil {
		return nil, err
	}

	items := make([]port.DistributionItem, 0, len(campaigns))
	for _, c := range campaigns {
		members, err := s.incidents.ListByCampaign(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			continue
		}
		total := 0
		for _, m := range members {
			total += impactScore(m.ImpactLevel)
		}
		items = append(items, port.DistributionItem{
			AttackVector: c.PrimaryAttackVector,
			Count:        len(members),
			AvgImpact:    impactFromScore(float64(total) / float64(len(members))),
		})
	}

	err = s.audit.Append(ctx, &domain.AuditEntry{
		OrgID:       orgID,
		Action:      domain.ActionViewDistribution,
		Params:      map[string]string{},
		ResultCount: len(items),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SectorHeatmap returns (sector, attack vector, count) cells showing which
// sectors each campaign's attack vector hit. Campaigns below the
// k-anonymity threshold contribute no cells: the heatmap must not disclose
// a sector link the campaign projection suppresses. Budget-gated and
// audited.
func (s *SharingService) SectorHeatmap(ctx context.Context, orgID string) ([]port.HeatmapCell, error) {
	if err := s.charge(ctx, orgID); err != nil {
		return nil, err
	}

	campaigns, err := s.campaigns.List(ctx, port.CampaignFilters{})
	if err != nil {
		return nil, err
	}

	var cells []port.HeatmapCell
	for _, c := range campaigns {
		if c.NumOrgs < s.projector.K {
			continue
		}
		members, err := s.incidents.ListByCampaign(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		counts := make(map[domain.Sector]int)
		for _, m := range members {
			org, err := s.orgs.Get(ctx, m.OrgID)
			if err != nil {
				return nil, err
			}
			if org != nil {
				counts[org.Sector]++
			}
		}
		for sector, n := range counts {
			cells = append(cells, port.HeatmapCell{
				Sector:       sector,
				AttackVector: c.PrimaryAttackVector,
				Count:        n,
			})
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].AttackVector != cells[j].AttackVector {
			return cells[i].AttackVector < cells[j].AttackVector
		}
		return cells[i].Sector < cells[j].Sector
	})

	err = s.audit.Append(ctx, &domain.AuditEntry{
		OrgID:       orgID,
		Action:      domain.ActionViewHeatmap,
		Params:      map[string]string{},
		ResultCount: len(cells),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return cells, nil
}

// CoordinationOpportunities returns campaigns worth coordinating on,
// prioritized by breadth and recency. Campaigns that rank "low" are
// omitted. Budget-gated and audited.
func (s *SharingService) CoordinationOpportunities(ctx context.Context, orgID string) ([]port.CoordinationOpportunity, error) {
	if err := s.charge(ctx, orgID); err != nil {
		return nil, err
	}

	campaigns, err := s.campaigns.List(ctx, port.CampaignFilters{})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var opportunities []port.CoordinationOpportunity
	for _, c := range campaigns {
		priority := coordinationPriority(c, now)
		if priority == "low" {
			continue
		}
		opportunities = append(opportunities, port.CoordinationOpportunity{
			CampaignID:   c.ID,
			CampaignName: string(c.PrimaryAttackVector),
			Priority:     priority,
			NumOrgs:      c.NumOrgs,
			NumIncidents: c.NumIncidents,
			LastSeen:     c.LastSeen,
			AttackVector: c.PrimaryAttackVector,
		})
	}
	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].LastSeen.After(opportunities[j].LastSeen)
	})

	err = s.audit.Append(ctx, &domain.AuditEntry{
		OrgID:       orgID,
		Action:      domain.ActionViewOpportunities,
		Params:      map[string]string{},
		ResultCount: len(opportunities),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return opportunities, nil
}

func coordinationPriority(c *domain.Campaign, now time.Time) string {
	daysOld := int(now.Sub(c.LastSeen).Hours() / 24)
	switch {
	case c.NumOrgs >= 5 && daysOld <= 7:
		return "critical"
	case c.NumOrgs >= 3 && daysOld <= 14:
		return "high"
	case c.NumOrgs >= 2 && daysOld <= 30:
		return "medium"
	default:
		return "low"
	}
}

func impactScore(l domain.ImpactLevel) int {
	switch l {
	case domain.ImpactHigh:
		return 3
	case domain.ImpactMedium:
		return 2
	default:
		return 1
	}
}

func impactFromScore(score float64) domain.ImpactLevel {
	switch {
	case score >= 2.5:
		return domain.ImpactHigh
	case score >= 1.5:
		return domain.ImpactMedium
	default:
		return domain.ImpactLow
	}
}
