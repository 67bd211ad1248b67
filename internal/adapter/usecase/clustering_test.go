package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
)

// TestSharedIOCJoinsCampaign: incidents with the same attack vector, a
// time window inside the tolerance and one shared IOC end up in the same
// campaign, regardless of region.
func TestSharedIOCJoinsCampaign(t *testing.T) {
	env := newTestEnv(defaultEnvOptions(), orgAlice(), orgBob())
	iocs := []domain.IOC{{Kind: "domain", Value: "evil.com"}}

	a := submitAt(t, env, "org_alice", "a-1", baseTime, iocs, "alice report")
	b := submitAt(t, env, "org_bob", "b-1", baseTime.Add(3*24*time.Hour), iocs, "bob report")

	require.Equal(t, a.CampaignID, b.CampaignID)
	require.Equal(t, 1, env.campaigns.count())
}

// TestIOCValuesMatchCaseInsensitively: IOC pairs are normalized on intake.
func TestIOCValuesMatchCaseInsensitively(t *testing.T) {
	env := newTestEnv(defaultEnvOptions(), orgAlice(), orgBob())

	a := submitAt(t, env, "org_alice", "a-1", baseTime,
		[]domain.IOC{{Kind: "Domain", Value: "Evil.COM"}}, "alice")
	b := submitAt(t, env, "org_bob", "b-1", baseTime,
		[]domain.IOC{{Kind: "domain", Value: "evil.com"}}, "bob")

	require.Equal(t, a.CampaignID, b.CampaignID)
}

// TestDistantTimeWindowCreatesNewCampaign: beyond the ±7 day tolerance the
// same IOC is treated as a new campaign.
func TestDistantTimeWindowCreatesNewCampaign(t *testing.T) {
	env := newTestEnv(defaultEnvOptions(), orgAlice(), orgBob())
	iocs := []domain.IOC{{Kind: "domain", Value: "evil.com"}}

	a := submitAt(t, env, "org_alice", "a-1", baseTime, iocs, "alice")
	b := submitAt(t, env, "org_bob", "b-1", baseTime.Add(30*24*time.Hour), iocs, "bob")

	require.NotEqual(t, a.CampaignID, b.CampaignID)
	require.Equal(t, 2, env.campaigns.count())
}

// TestDifferentVectorNeverClusters: the attack vector is an absolute gate.
func TestDifferentVectorNeverClusters(t *testing.T) {
	env := newTestEnv(defaultEnvOptions(), orgAlice(), orgBob())
	iocs := []domain.IOC{{Kind: "domain", Value: "evil.com"}}
	ctx := context.Background()

	a := submitAt(t, env, "org_alice", "a-1", baseTime, iocs, "alice")
	b, err := env.svc.SubmitIncident(ctx, "org_bob", port.IncidentSubmission{
		LocalRef:     "b-1",
		TimeStart:    baseTime,
		AttackVector: domain.VectorDeepfakeVoice,
		IOCs:         iocs,
		ImpactLevel:  domain.ImpactLow,
		Summary:      "bob",
	})
	require.NoError(t, err)
	require.NotEqual(t, a.CampaignID, b.CampaignID)
}

// TestSingleCandidateJoinsWithoutIOC: with one vector/time/region
// compatible candidate, missing IOC overlap does not force a new campaign.
func TestSingleCandidateJoinsWithoutIOC(t *testing.T) {
	env := newTestEnv(defaultEnvOptions(), orgAlice(), orgCarol())

	a := submitAt(t, env, "org_alice", "a-1", baseTime,
		[]domain.IOC{{Kind: "domain", Value: "evil.com"}}, "alice")

	// Same region org, no IOCs at all.
	alice2 := &domain.Organization{ID: "org_alice2", Sector: domain.SectorGov, Region: domain.RegionNAEast}
	env.orgs.byID[alice2.ID] = alice2
	b := submitAt(t, env, "org_alice2", "b-1", baseTime.Add(24*time.Hour), nil, "neighbour")

	require.Equal(t, a.CampaignID, b.CampaignID)
}

// TestStrictModeRequiresIOCOverlap: with the strict flag on, the single
// compatible candidate is not enough.
func TestStrictModeRequiresIOCOverlap(t *testing.T) {
	opts := defaultEnvOptions()
	opts.strictIOC = true
	env := newTestEnv(opts, orgAlice())

	a := submitAt(t, env, "org_alice", "a-1", baseTime,
		[]domain.IOC{{Kind: "domain", Value: "evil.com"}}, "alice")
	b := submitAt(t, env, "org_alice", "a-2", baseTime.Add(24*time.Hour),
		[]domain.IOC{{Kind: "domain", Value: "other.com"}}, "alice again")

	require.NotEqual(t, a.CampaignID, b.CampaignID)
}

// TestRegionIncompatibleFallbackCreatesNew: without IOC evidence, a
// candidate recorded in another region is not joined.
func TestRegionIncompatibleFallbackCreatesNew(t *testing.T) {
	env := newTestEnv(defaultEnvOptions(), orgAlice(), orgBob())

	a := submitAt(t, env, "org_alice", "a-1", baseTime,
		[]domain.IOC{{Kind: "domain", Value: "evil.com"}}, "alice")
	// Bob is in EU; the campaign only has NA-East recorded and there is no
	// shared IOC.
	b := submitAt(t, env, "org_bob", "b-1", baseTime.Add(24*time.Hour),
		[]domain.IOC{{Kind: "domain", Value: "unrelated.com"}}, "bob")

	require.NotEqual(t, a.CampaignID, b.CampaignID)
}

// TestTieBreakPrefersLargestCampaign: among several IOC-overlapping
// candidates the one with the most member incidents wins.
func TestTieBreakPrefersLargestCampaign(t *testing.T) {
	env := newTestEnv(defaultEnvOptions(), orgAlice())
	ctx := context.Background()
	alice := orgAlice()

	// Build two campaigns by hand around distinct IOCs, then submit an
	// incident carrying both IOCs.
	mk := func(ref string, ioc domain.IOC) int64 {
		in := &domain.Incident{
			ID:           ref,
			OrgID:        "org_alice",
			LocalRef:     ref,
			TimeStart:    baseTime,
			AttackVector: domain.VectorAIPhishing,
			IOCs:         []domain.IOC{ioc},
			ImpactLevel:  domain.ImpactLow,
			Summary:      ref,
			CreatedAt:    baseTime,
		}
		require.NoError(t, env.incidents.Create(ctx, in))
		id, err := env.engine.AssignCampaign(ctx, in, alice)
		require.NoError(t, err)
		return id
	}

	first := mk("c1-a", domain.IOC{Kind: "domain", Value: "one.com"})
	second := mk("c2-a", domain.IOC{Kind: "domain", Value: "two.com"})
	require.NotEqual(t, first, second)

	// Grow the second campaign to two incidents.
	grown := mk("c2-b", domain.IOC{Kind: "domain", Value: "two.com"})
	require.Equal(t, second, grown)

	got := submitAt(t, env, "org_alice", "both", baseTime, []domain.IOC{
		{Kind: "domain", Value: "one.com"},
		{Kind: "domain", Value: "two.com"},
	}, "overlaps both")
	require.Equal(t, second, got.CampaignID)
}

// TestConcurrentSubmissionsSingleCampaign: concurrent submissions of the
// same emerging pattern must not create duplicate campaigns.
func TestConcurrentSubmissionsSingleCampaign(t *testing.T) {
	env := newTestEnv(defaultEnvOptions(), orgAlice())
	iocs := []domain.IOC{{Kind: "domain", Value: "evil.com"}}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]int64, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			result, err := env.svc.SubmitIncident(context.Background(), "org_alice", port.IncidentSubmission{
				LocalRef:     fmt.Sprintf("ref-%d", i),
				TimeStart:    baseTime,
				AttackVector: domain.VectorAIPhishing,
				IOCs:         iocs,
				ImpactLevel:  domain.ImpactMedium,
				Summary:      "concurrent",
			})
			require.NoError(t, err)
			results[i] = result.CampaignID
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, env.campaigns.count())
	for _, id := range results {
		require.Equal(t, results[0], id)
	}

	c, err := env.campaigns.Get(context.Background(), results[0])
	require.NoError(t, err)
	require.Equal(t, workers, c.NumIncidents)
	require.Equal(t, 1, c.NumOrgs)
}

// TestValidationRejectsBeforeClustering: malformed input leaves no state.
func TestValidationRejectsBeforeClustering(t *testing.T) {
	env := newTestEnv(defaultEnvOptions(), orgAlice())
	ctx := context.Background()

	cases := []port.IncidentSubmission{
		{LocalRef: "r", TimeStart: baseTime, AttackVector: "tarot_cards", ImpactLevel: domain.ImpactLow, Summary: "s"},
		{LocalRef: "r", TimeStart: baseTime, AttackVector: domain.VectorAIPhishing, ImpactLevel: "apocalyptic", Summary: "s"},
		{LocalRef: "r", AttackVector: domain.VectorAIPhishing, ImpactLevel: domain.ImpactLow, Summary: "s"},
		{LocalRef: "", TimeStart: baseTime, AttackVector: domain.VectorAIPhishing, ImpactLevel: domain.ImpactLow, Summary: "s"},
		{LocalRef: "r", TimeStart: baseTime, AttackVector: domain.VectorAIPhishing, ImpactLevel: domain.ImpactLow,
			IOCs: []domain.IOC{{Kind: "", Value: "evil.com"}}, Summary: "s"},
	}
	for i, sub := range cases {
		_, err := env.svc.SubmitIncident(ctx, "org_alice", sub)
		require.Error(t, err, "case %d", i)
		require.True(t, domain.IsValidation(err), "case %d: %v", i, err)
	}
	require.Equal(t, 0, env.campaigns.count())
	require.Empty(t, env.audit.byAction(domain.ActionSubmitIncident))
}
