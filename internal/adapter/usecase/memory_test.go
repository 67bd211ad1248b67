package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
	"sentinelnet/internal/metrics"
)

// In-memory repository fakes. They guard state with a mutex so the
// concurrency tests exercise the usecases against a truthful store.

type memIncidents struct {
	mu   sync.Mutex
	byID map[string]*domain.Incident
}

func newMemIncidents() *memIncidents {
	return &memIncidents{byID: make(map[string]*domain.Incident)}
}

func (r *memIncidents) Create(_ context.Context, in *domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *in
	r.byID[in.ID] = &cp
	return nil
}

func (r *memIncidents) Update(_ context.Context, in *domain.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[in.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *in
	cp.CampaignID = stored.CampaignID
	cp.CreatedAt = stored.CreatedAt
	r.byID[in.ID] = &cp
	return nil
}

func (r *memIncidents) Get(_ context.Context, id string) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *in
	return &cp, nil
}

func (r *memIncidents) FindByOrgRef(_ context.Context, orgID, localRef string) (*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.byID {
		if in.OrgID == orgID && in.LocalRef == localRef {
			cp := *in
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memIncidents) AssignCampaign(_ context.Context, incidentID string, campaignID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.byID[incidentID]
	if !ok {
		return domain.ErrNotFound
	}
	if in.CampaignID == nil {
		in.CampaignID = &campaignID
	}
	return nil
}

func (r *memIncidents) ListByCampaign(_ context.Context, campaignID int64) ([]*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Incident
	for _, in := range r.byID {
		if in.CampaignID != nil && *in.CampaignID == campaignID {
			cp := *in
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memIncidents) ListInWindow(_ context.Context, from, to time.Time) ([]*domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Incident
	for _, in := range r.byID {
		if in.TimeStart.Before(from) || in.TimeStart.After(to) {
			continue
		}
		cp := *in
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeStart.Before(out[j].TimeStart) })
	return out, nil
}

type memCampaigns struct {
	mu     sync.Mutex
	byID   map[int64]*domain.Campaign
	nextID int64
}

func newMemCampaigns() *memCampaigns {
	return &memCampaigns{byID: make(map[int64]*domain.Campaign)}
}

func (r *memCampaigns) Create(_ context.Context, c *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *memCampaigns) Update(_ context.Context, c *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *memCampaigns) Get(_ context.Context, id int64) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *memCampaigns) Candidates(_ context.Context, vector domain.AttackVector, from, to time.Time) ([]*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Campaign
	for _, c := range r.byID {
		if c.PrimaryAttackVector != vector {
			continue
		}
		if c.LastSeen.Before(from) || c.FirstSeen.After(to) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memCampaigns) List(_ context.Context, f port.CampaignFilters) ([]*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Campaign
	for _, c := range r.byID {
		if f.AttackVector != nil && c.PrimaryAttackVector != *f.AttackVector {
			continue
		}
		if f.Since != nil && c.LastSeen.Before(*f.Since) {
			continue
		}
		if f.Until != nil && c.FirstSeen.After(*f.Until) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memCampaigns) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type memOrgs struct {
	mu   sync.Mutex
	byID map[string]*domain.Organization
}

func newMemOrgs(orgs ...*domain.Organization) *memOrgs {
	r := &memOrgs{byID: make(map[string]*domain.Organization)}
	for _, org := range orgs {
		r.byID[org.ID] = org
	}
	return r
}

func (r *memOrgs) Get(_ context.Context, id string) (*domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	org, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *org
	return &cp, nil
}

func (r *memOrgs) List(_ context.Context) ([]*domain.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Organization, 0, len(r.byID))
	for _, org := range r.byID {
		cp := *org
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memBudgets struct {
	mu   sync.Mutex
	byID map[string]*domain.BudgetRecord
}

func newMemBudgets() *memBudgets {
	return &memBudgets{byID: make(map[string]*domain.BudgetRecord)}
}

func (r *memBudgets) Get(_ context.Context, orgID string) (*domain.BudgetRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[orgID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memBudgets) Save(_ context.Context, rec *domain.BudgetRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.byID[rec.OrgID] = &cp
	return nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func newMemAudit() *memAudit {
	return &memAudit{}
}

func (r *memAudit) Append(_ context.Context, e *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *memAudit) byAction(action string) []*domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditEntry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// testEnv bundles a fully wired service over in-memory repositories.
type testEnv struct {
	incidents *memIncidents
	campaigns *memCampaigns
	orgs      *memOrgs
	budgets   *memBudgets
	audit     *memAudit

	ledger     *BudgetLedger
	engine     *ClusterEngine
	aggregator *Aggregator
	svc        *SharingService
}

type envOptions struct {
	k           int
	quota       int
	window      time.Duration
	tolerance   time.Duration
	strictIOC   bool
	sampleLimit int
}

func defaultEnvOptions() envOptions {
	return envOptions{
		k:           2,
		quota:       100,
		window:      24 * time.Hour,
		tolerance:   7 * 24 * time.Hour,
		sampleLimit: 3,
	}
}

func newTestEnv(opts envOptions, orgs ...*domain.Organization) *testEnv {
	env := &testEnv{
		incidents: newMemIncidents(),
		campaigns: newMemCampaigns(),
		orgs:      newMemOrgs(orgs...),
		budgets:   newMemBudgets(),
		audit:     newMemAudit(),
	}
	m := metrics.New(prometheus.NewRegistry())
	env.ledger = NewBudgetLedger(env.budgets, opts.quota, opts.window)
	env.aggregator = NewAggregator(env.campaigns, env.incidents, env.orgs, opts.sampleLimit)
	env.engine = NewClusterEngine(env.campaigns, env.incidents, env.aggregator, m,
		opts.tolerance, opts.strictIOC, opts.sampleLimit)
	env.svc = NewSharingService(env.incidents, env.campaigns, env.orgs, env.audit,
		env.ledger, env.engine, NewProjector(opts.k), m)
	return env
}

func orgAlice() *domain.Organization {
	return &domain.Organization{ID: "org_alice", DisplayName: "Alice Health", Sector: domain.SectorHealth, Region: domain.RegionNAEast}
}

func orgBob() *domain.Organization {
	return &domain.Organization{ID: "org_bob", DisplayName: "Bob Energy", Sector: domain.SectorEnergy, Region: domain.RegionEU}
}

func orgCarol() *domain.Organization {
	return &domain.Organization{ID: "org_carol", DisplayName: "Carol Water", Sector: domain.SectorWater, Region: domain.RegionNAWest}
}
