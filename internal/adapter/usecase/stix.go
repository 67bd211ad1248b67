package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
)

// ExportCampaignSTIX serializes a campaign as a STIX 2.1 bundle: one
// campaign object, an attack-pattern per distinct technique, an indicator
// per distinct IOC, and the uses/indicates relationships tying them to the
// campaign. The bundle carries no organization data; the description is
// the canonical summary. Budget-gated and audited.
func (s *SharingService) ExportCampaignSTIX(ctx context.Context, orgID string, campaignID int64) (*port.STIXBundle, error) {
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
	members, err := s.incidents.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	bundle := buildSTIXBundle(c, members)
	err = s.audit.Append(ctx, &domain.AuditEntry{
		OrgID:       orgID,
		Action:      domain.ActionExportSTIX,
		Params:      map[string]string{"campaign_id": strconv.FormatInt(campaignID, 10)},
		ResultCount: 1,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

func buildSTIXBundle(c *domain.Campaign, members []*domain.Incident) *port.STIXBundle {
	now := time.Now().UTC().Format(time.RFC3339)
	firstSeen := c.FirstSeen.UTC().Format(time.RFC3339)
	lastSeen := c.LastSeen.UTC().Format(time.RFC3339)

	campaignRef := "campaign--" + uuid.NewString()
	objects := []port.STIXObject{{
		"type":          "campaign",
		"id":            campaignRef,
		"created":       firstSeen,
		"modified":      lastSeen,
		"name":          "Campaign: " + string(c.PrimaryAttackVector),
		"description":   c.CanonicalSummary,
		"campaign_type": "attack",
	}}

	for _, technique := range memberTechniques(members) {
		ref := "attack-pattern--" + uuid.NewString()
		objects = append(objects, port.STIXObject{
			"type":     "attack-pattern",
			"id":       ref,
			"created":  now,
			"modified": now,
			"name":     technique,
			"external_references": []port.STIXObject{{
				"source_name": "mitre-attack",
				"external_id": technique,
			}},
		})
		objects = append(objects, port.STIXObject{
			"type":              "relationship",
			"id":                "relationship--" + uuid.NewString(),
			"created":           now,
			"modified":          now,
			"relationship_type": "uses",
			"source_ref":        campaignRef,
			"target_ref":        ref,
		})
	}

	var iocs []domain.IOC
	for _, m := range members {
		iocs = append(iocs, m.IOCs...)
	}
	for _, ioc := range dedupeIOCs(iocs) {
		ref := "indicator--" + uuid.NewString()
		objects = append(objects, port.STIXObject{
			"type":         "indicator",
			"id":           ref,
			"created":      firstSeen,
			"modified":     lastSeen,
			"pattern":      stixPattern(ioc),
			"pattern_type": "stix",
			"valid_from":   firstSeen,
			"labels":       []string{"malicious-activity"},
		})
		objects = append(objects, port.STIXObject{
			"type":              "relationship",
			"id":                "relationship--" + uuid.NewString(),
			"created":           now,
			"modified":          now,
			"relationship_type": "indicates",
			"source_ref":        ref,
			"target_ref":        campaignRef,
		})
	}

	return &port.STIXBundle{
		Type:    "bundle",
		ID:      "bundle--" + uuid.NewString(),
		Objects: objects,
	}
}

// memberTechniques returns the distinct techniques across members, sorted
// for deterministic bundle order.
func memberTechniques(members []*domain.Incident) []string {
	set := make(map[string]struct{})
	for _, m := range members {
		for _, t := range m.Techniques {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// stixPattern maps an IOC to a STIX comparison expression by its kind.
func stixPattern(ioc domain.IOC) string {
	switch ioc.Kind {
	case "domain":
		return fmt.Sprintf("[domain-name:value = '%s']", ioc.Value)
	case "ip":
		return fmt.Sprintf("[ipv4-addr:value = '%s']", ioc.Value)
	case "email":
		return fmt.Sprintf("[email-addr:value = '%s']", ioc.Value)
	case "hash":
		return fmt.Sprintf("[file:hashes.MD5 = '%s' OR file:hashes.'SHA-256' = '%s']", ioc.Value, ioc.Value)
	default:
		return fmt.Sprintf("[x-custom:value = '%s']", ioc.Value)
	}
}
