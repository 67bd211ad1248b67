package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
	"sentinelnet/internal/metrics"
)

const (
	lockAttempts = 50
	lockBackoff  = 10 * time.Millisecond
)

// ClusterEngine decides which campaign a new incident belongs to. The
// find-or-create decision, the incident's campaign assignment and the
// aggregate merge all run under a per-attack-vector mutex, so two
// concurrent submissions for the same emerging pattern are ordered: the
// second observes the campaign the first created.
type ClusterEngine struct {
	campaigns  port.CampaignRepository
	incidents  port.IncidentRepository
	aggregator *Aggregator
	metrics    *metrics.Metrics

	// tolerance is the +- slack between an incident's time window and a
	// candidate campaign's observed window.
	tolerance time.Duration
	// strictIOC makes IOC overlap a hard requirement instead of a
	// disambiguator between multiple compatible candidates.
	strictIOC      bool
	sampleIOCLimit int

	mu    sync.Mutex
	locks map[domain.AttackVector]*sync.Mutex
}

// NewClusterEngine wires the engine. The aggregator is invoked inside the
// clustering lock whenever an incident joins an existing campaign.
func NewClusterEngine(
	campaigns port.CampaignRepository,
	incidents port.IncidentRepository,
	aggregator *Aggregator,
	m *metrics.Metrics,
	tolerance time.Duration,
	strictIOC bool,
	sampleIOCLimit int,
) *ClusterEngine {
	return &ClusterEngine{
		campaigns:      campaigns,
		incidents:      incidents,
		aggregator:     aggregator,
		metrics:        m,
		tolerance:      tolerance,
		strictIOC:      strictIOC,
		sampleIOCLimit: sampleIOCLimit,
		locks:          make(map[domain.AttackVector]*sync.Mutex),
	}
}

// AssignCampaign finds or creates the campaign for a validated incident,
// persists the one-time assignment and merges the aggregates. Called
// exactly once per incident, at submission time. Returns the campaign id.
func (e *ClusterEngine) AssignCampaign(ctx context.Context, in *domain.Incident, org *domain.Organization) (int64, error) {
	lock := e.vectorLock(in.AttackVector)
	if !acquireBounded(lock) {
		return 0, domain.ErrContention
	}
	defer lock.Unlock()

	match, err := e.findMatch(ctx, in, org)
	if err != nil {
		return 0, err
	}

	if match == nil {
		created, err := e.createCampaign(ctx, in, org)
		if err != nil {
			return 0, err
		}
		if err = e.incidents.AssignCampaign(ctx, in.ID, created.ID); err != nil {
			return 0, err
		}
		in.CampaignID = &created.ID
		e.metrics.CampaignsCreated.Inc()
		return created.ID, nil
	}

	if err = e.incidents.AssignCampaign(ctx, in.ID, match.ID); err != nil {
		return 0, err
	}
	in.CampaignID = &match.ID
	if err = e.aggregator.Merge(ctx, match.ID, in); err != nil {
		return 0, err
	}
	e.metrics.CampaignsJoined.Inc()
	return match.ID, nil
}

// ReMerge folds an updated incident back into its already assigned
// campaign. It takes the same per-attack-vector lock that AssignCampaign
// holds, so a resubmission merge can never interleave with a concurrent
// join and overwrite its aggregate update. The campaign's primary vector
// keys the lock; it is immutable, so the pre-lock read is safe.
func (e *ClusterEngine) ReMerge(ctx context.Context, campaignID int64, in *domain.Incident) error {
	c, err := e.campaigns.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrNotFound
	}

	lock := e.vectorLock(c.PrimaryAttackVector)
	if !acquireBounded(lock) {
		return domain.ErrContention
	}
	defer lock.Unlock()
	return e.aggregator.Merge(ctx, campaignID, in)
}

// findMatch evaluates the matching rule against all candidate campaigns.
// An exact IOC match against any member incident joins a campaign outright,
// even across regions. Without IOC evidence, an incident still joins a
// single candidate that matches vector, time window and region; with
// several such candidates and nothing to disambiguate them, a fresh
// campaign is started. Ties among overlapping candidates go to the
// campaign with the most incidents, then the lowest id.
func (e *ClusterEngine) findMatch(ctx context.Context, in *domain.Incident, org *domain.Organization) (*domain.Campaign, error) {
	start, end := in.Window()
	candidates, err := e.campaigns.Candidates(ctx, in.AttackVector, start.Add(-e.tolerance), end.Add(e.tolerance))
	if err != nil {
		return nil, err
	}

	var (
		overlapping []*domain.Campaign
		fallback    []*domain.Campaign
	)
	for _, c := range candidates {
		if !e.windowCompatible(in, c) {
			continue
		}
		overlap, err := e.iocOverlap(ctx, in, c)
		if err != nil {
			return nil, err
		}
		if overlap {
			overlapping = append(overlapping, c)
			continue
		}
		if len(c.Regions) == 0 || c.HasRegion(org.Region) {
			fallback = append(fallback, c)
		}
	}

	switch {
	case len(overlapping) > 0:
		return pickBest(overlapping), nil
	case e.strictIOC:
		return nil, nil
	case len(fallback) == 1:
		return fallback[0], nil
	default:
		return nil, nil
	}
}

func (e *ClusterEngine) windowCompatible(in *domain.Incident, c *domain.Campaign) bool {
	start, end := in.Window()
	return !c.FirstSeen.After(end.Add(e.tolerance)) && !c.LastSeen.Before(start.Add(-e.tolerance))
}

// iocOverlap reports whether the incident shares at least one exact
// (kind, value) pair with any member incident of the campaign.
func (e *ClusterEngine) iocOverlap(ctx context.Context, in *domain.Incident, c *domain.Campaign) (bool, error) {
	if len(in.IOCs) == 0 {
		return false, nil
	}
	members, err := e.incidents.ListByCampaign(ctx, c.ID)
	if err != nil {
		return false, err
	}
	seen := make(map[string]struct{})
	for _, m := range members {
		for _, ioc := range m.IOCs {
			seen[ioc.Key()] = struct{}{}
		}
	}
	for _, ioc := range in.IOCs {
		if _, ok := seen[ioc.Key()]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (e *ClusterEngine) createCampaign(ctx context.Context, in *domain.Incident, org *domain.Organization) (*domain.Campaign, error) {
	start, end := in.Window()
	now := time.Now().UTC()
	c := &domain.Campaign{
		PrimaryAttackVector: in.AttackVector,
		AIComponents:        append([]string(nil), in.AIComponents...),
		Sectors:             []domain.Sector{org.Sector},
		Regions:             []domain.Region{org.Region},
		FirstSeen:           start,
		LastSeen:            end,
		NumOrgs:             1,
		NumIncidents:        1,
		CanonicalSummary:    seedSummary(in),
		SampleIOCs:          capIOCs(dedupeIOCs(in.IOCs), e.sampleIOCLimit),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := e.campaigns.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// seedSummary builds the placeholder canonical summary for a freshly
// created campaign. It deliberately names neither the organization nor its
// sector or region: the summary field is never suppressed by projection,
// so it must not carry anything the k-anonymity rule would hide.
func seedSummary(in *domain.Incident) string {
	components := "AI components"
	if len(in.AIComponents) > 0 {
		components = strings.Join(in.AIComponents, ", ")
	}
	return fmt.Sprintf("AI-%s campaign using %s.", in.AttackVector, components)
}

func pickBest(campaigns []*domain.Campaign) *domain.Campaign {
	best := campaigns[0]
	for _, c := range campaigns[1:] {
		if c.NumIncidents > best.NumIncidents ||
			(c.NumIncidents == best.NumIncidents && c.ID < best.ID) {
			best = c
		}
	}
	return best
}

func (e *ClusterEngine) vectorLock(v domain.AttackVector) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[v]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[v] = lock
	}
	return lock
}

// acquireBounded spins on TryLock with a short backoff instead of blocking
// indefinitely. Callers surface domain.ErrContention when it gives up.
func acquireBounded(mu *sync.Mutex) bool {
	for i := 0; i < lockAttempts; i++ {
		if mu.TryLock() {
			return true
		}
		time.Sleep(lockBackoff)
	}
	return false
}
