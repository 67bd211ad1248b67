package configs

import "time"

// Sharing holds the tunables of the incident clustering and aggregation
// core. The defaults mirror the documented behaviour: k=2 anonymity, a
// ±7-day clustering window and a 100-query daily budget.
type Sharing struct {
	// KAnonymity is the minimum number of distinct organizations a campaign
	// must span before sector/region data is disclosed in projections.
	KAnonymity int `env:"K_ANONYMITY" envDefault:"2"`

	// ClusterToleranceDays is the +- tolerance, in days, between a new
	// incident's time window and a candidate campaign's observed window.
	ClusterToleranceDays int `env:"CLUSTER_TOLERANCE_DAYS" envDefault:"7"`

	// StrictIOCMatch makes IOC overlap a hard clustering requirement. With
	// the default (false) overlap only disambiguates between multiple
	// otherwise-compatible candidates.
	StrictIOCMatch bool `env:"STRICT_IOC_MATCH" envDefault:"false"`

	// SampleIOCLimit bounds the representative IOCs kept on a campaign.
	SampleIOCLimit int `env:"SAMPLE_IOC_LIMIT" envDefault:"3"`

	// QueryBudget is the number of data-bearing reads an organization may
	// issue per budget window.
	QueryBudget int `env:"QUERY_BUDGET" envDefault:"100"`

	// BudgetWindow is the length of the rolling budget window.
	BudgetWindow time.Duration `env:"BUDGET_WINDOW" envDefault:"24h"`
}

// Tolerance returns ClusterToleranceDays as a duration.
func (s Sharing) Tolerance() time.Duration {
	return time.Duration(s.ClusterToleranceDays) * 24 * time.Hour
}
