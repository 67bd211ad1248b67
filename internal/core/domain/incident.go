package domain

import (
	"strings"
	"time"
)

// IOC is an indicator of compromise observed during an incident, a
// (kind, value) pair such as (domain, "evil.com"). Values are matched
// exactly across incidents when clustering.
type IOC struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Key returns the deduplication key for the pair. Kind and value are
// case-insensitive.
func (i IOC) Key() string {
	return strings.ToLower(i.Kind) + "|" + strings.ToLower(i.Value)
}

// Incident is a single organization's report of one attack event. Incidents
// are immutable after submission except for the one-time campaign assignment;
// a resubmission with the same (org, local_ref) replaces the descriptive
// fields but never moves the incident to another campaign.
type Incident struct {
	ID           string
	OrgID        string // never exposed outside the owner's own reads
	LocalRef     string // caller-supplied reference, unique per org
	TimeStart    time.Time
	TimeEnd      *time.Time
	AttackVector AttackVector
	AIComponents []string // open tag set, e.g. "llm_content"
	Techniques   []string // open tag set, e.g. MITRE technique ids
	IOCs         []IOC
	ImpactLevel  ImpactLevel
	Summary      string
	CampaignID   *int64 // nil until clustering runs, then immutable
	CreatedAt    time.Time
}

// Validate checks the closed-enumeration fields and structural requirements
// before clustering runs. It returns a *ValidationError describing the first
// violation found, or nil.
func (in *Incident) Validate() error {
	if strings.TrimSpace(in.LocalRef) == "" {
		return &ValidationError{Field: "local_ref", Reason: "must not be empty"}
	}
	if in.TimeStart.IsZero() {
		return &ValidationError{Field: "time_start", Reason: "missing or unparseable"}
	}
	if in.TimeEnd != nil && in.TimeEnd.Before(in.TimeStart) {
		return &ValidationError{Field: "time_end", Reason: "precedes time_start"}
	}
	if !in.AttackVector.Valid() {
		return &ValidationError{Field: "attack_vector", Reason: "unknown value"}
	}
	if !in.ImpactLevel.Valid() {
		return &ValidationError{Field: "impact_level", Reason: "unknown value"}
	}
	for _, ioc := range in.IOCs {
		if strings.TrimSpace(ioc.Kind) == "" || strings.TrimSpace(ioc.Value) == "" {
			return &ValidationError{Field: "iocs", Reason: "kind and value must not be empty"}
		}
	}
	return nil
}

// Normalize trims and lowercases the open tag sets and IOC pairs so that
// set unions and overlap checks behave case-insensitively. Call after
// Validate.
func (in *Incident) Normalize() {
	in.AIComponents = normalizeTags(in.AIComponents)
	in.Techniques = normalizeTags(in.Techniques)
	for i, ioc := range in.IOCs {
		in.IOCs[i].Kind = strings.ToLower(strings.TrimSpace(ioc.Kind))
		in.IOCs[i].Value = strings.ToLower(strings.TrimSpace(ioc.Value))
	}
}

// Window returns the incident's effective time window. An open-ended
// incident has a zero-length window at TimeStart.
func (in *Incident) Window() (time.Time, time.Time) {
	if in.TimeEnd != nil {
		return in.TimeStart, *in.TimeEnd
	}
	return in.TimeStart, in.TimeStart
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
