package domain

import "time"

// Campaign is an aggregate over one or more incidents believed to share the
// same attacker activity. The sector/region sets always hold the true
// underlying values; k-anonymity suppression happens only at the projection
// boundary so later incidents keep accruing correctly.
type Campaign struct {
	ID                  int64
	PrimaryAttackVector AttackVector
	AIComponents        []string
	Sectors             []Sector
	Regions             []Region
	FirstSeen           time.Time
	LastSeen            time.Time
	NumOrgs             int // distinct owning organizations among members
	NumIncidents        int
	CanonicalSummary    string
	SampleIOCs          []IOC // bounded, deduplicated by kind+value
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasRegion reports whether r is in the campaign's recorded region set.
func (c *Campaign) HasRegion(r Region) bool {
	for _, v := range c.Regions {
		if v == r {
			return true
		}
	}
	return false
}

// HasSector reports whether s is in the campaign's recorded sector set.
func (c *Campaign) HasSector(s Sector) bool {
	for _, v := range c.Sectors {
		if v == s {
			return true
		}
	}
	return false
}

// CampaignView is the externally safe projection of a campaign. It never
// carries organization identifiers; Sectors and Regions are empty when the
// campaign is below the k-anonymity threshold.
type CampaignView struct {
	ID                  int64        `json:"id"`
	PrimaryAttackVector AttackVector `json:"primary_attack_vector"`
	AIComponents        []string     `json:"ai_components"`
	NumOrgs             int          `json:"num_orgs"`
	NumIncidents        int          `json:"num_incidents"`
	FirstSeen           time.Time    `json:"first_seen"`
	LastSeen            time.Time    `json:"last_seen"`
	Sectors             []Sector     `json:"sectors"`
	Regions             []Region     `json:"regions"`
	CanonicalSummary    string       `json:"canonical_summary"`
	SampleIOCs          []IOC        `json:"sample_iocs,omitempty"`
}
