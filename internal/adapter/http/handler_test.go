package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
)

type stubUseCase struct {
	submitResult *port.SubmitResult
	submitErr    error
	listViews    []domain.CampaignView
	listErr      error
	getViewErr   error
	stixBundle   *port.STIXBundle
	stixErr      error
	trendDays    int
}

func (s *stubUseCase) SubmitIncident(context.Context, string, port.IncidentSubmission) (*port.SubmitResult, error) {
	return s.submitResult, s.submitErr
}

func (s *stubUseCase) GetIncident(context.Context, string, string) (*domain.Incident, error) {
	return nil, domain.ErrNotFound
}

func (s *stubUseCase) ListCampaigns(context.Context, string, port.CampaignFilters) ([]domain.CampaignView, error) {
	return s.listViews, s.listErr
}

func (s *stubUseCase) GetCampaign(context.Context, string, int64) (*domain.CampaignView, error) {
	return nil, s.getViewErr
}

func (s *stubUseCase) AmIAlone(context.Context, string, string) (*port.AmIAloneResult, error) {
	return &port.AmIAloneResult{}, nil
}

func (s *stubUseCase) Trends(_ context.Context, _ string, days int) ([]port.TrendPoint, error) {
	s.trendDays = days
	return nil, nil
}

func (s *stubUseCase) AttackVectorDistribution(context.Context, string) ([]port.DistributionItem, error) {
	return nil, nil
}

func (s *stubUseCase) SectorHeatmap(context.Context, string) ([]port.HeatmapCell, error) {
	return nil, nil
}

func (s *stubUseCase) CoordinationOpportunities(context.Context, string) ([]port.CoordinationOpportunity, error) {
	return nil, nil
}

func (s *stubUseCase) ExportCampaignSTIX(context.Context, string, int64) (*port.STIXBundle, error) {
	return s.stixBundle, s.stixErr
}

func (s *stubUseCase) QueryBudget(context.Context, string) (*port.BudgetStatus, error) {
	return &port.BudgetStatus{Remaining: 42}, nil
}

type stubOrgs struct {
	orgs []*domain.Organization
}

func (s *stubOrgs) Get(_ context.Context, id string) (*domain.Organization, error) {
	for _, org := range s.orgs {
		if org.ID == id {
			return org, nil
		}
	}
	return nil, nil
}

func (s *stubOrgs) List(context.Context) ([]*domain.Organization, error) {
	return s.orgs, nil
}

func newTestHandler(t *testing.T, svc port.SharingUseCase) *Handler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-key"), bcrypt.MinCost)
	require.NoError(t, err)
	orgs := &stubOrgs{orgs: []*domain.Organization{{
		ID:         "org_alice",
		Sector:     domain.SectorHealth,
		Region:     domain.RegionNAEast,
		APIKeyHash: string(hash),
	}}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(svc, orgs, logger, prometheus.NewRegistry())
}

func TestAuthRequired(t *testing.T) {
	h := newTestHandler(t, &stubUseCase{})
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/campaigns")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/campaigns", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubmitIncident(t *testing.T) {
	svc := &stubUseCase{submitResult: &port.SubmitResult{IncidentID: "inc-1", CampaignID: 7}}
	h := newTestHandler(t, svc)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	body := `{"local_ref":"ref-1","time_start":"2025-11-10T09:00:00Z","attack_vector":"ai_phishing",
"iocs":[{"kind":"domain","value":"evil.com"}],"impact_level":"medium","summary":"phishing"}`
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/incidents", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result port.SubmitResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, "inc-1", result.IncidentID)
	require.Equal(t, int64(7), result.CampaignID)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		svc    *stubUseCase
		path   string
		status int
	}{
		{"validation", &stubUseCase{listErr: &domain.ValidationError{Field: "x", Reason: "y"}}, "/api/v1/campaigns", http.StatusBadRequest},
		{"budget", &stubUseCase{listErr: domain.ErrBudgetExceeded}, "/api/v1/campaigns", http.StatusTooManyRequests},
		{"not found", &stubUseCase{getViewErr: domain.ErrNotFound}, "/api/v1/campaigns/9", http.StatusNotFound},
		{"forbidden", &stubUseCase{getViewErr: domain.ErrForbidden}, "/api/v1/campaigns/9", http.StatusForbidden},
		{"contention", &stubUseCase{getViewErr: domain.ErrContention}, "/api/v1/campaigns/9", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, tc.svc)
			srv := httptest.NewServer(h.Router())
			defer srv.Close()

			req, _ := http.NewRequest(http.MethodGet, srv.URL+tc.path, nil)
			req.Header.Set("Authorization", "Bearer secret-key")
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestListCampaignsFilters(t *testing.T) {
	svc := &stubUseCase{listViews: []domain.CampaignView{{
		ID:                  1,
		PrimaryAttackVector: domain.VectorAIPhishing,
		NumOrgs:             2,
		NumIncidents:        3,
		FirstSeen:           time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		LastSeen:            time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC),
		Sectors:             []domain.Sector{domain.SectorHealth},
		Regions:             []domain.Region{domain.RegionEU},
	}}}
	h := newTestHandler(t, svc)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/campaigns?attack_vector=ai_phishing&since=2025-11-01T00:00:00Z", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []domain.CampaignView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 1)

	// Bad filter values are rejected before the usecase runs.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/v1/campaigns?attack_vector=nonsense", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrendsTimeWindow(t *testing.T) {
	svc := &stubUseCase{}
	h := newTestHandler(t, svc)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	for window, want := range map[string]int{"7d": 7, "30d": 30, "bogus": 90, "": 90} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/analytics/trends?time_window="+window, nil)
		req.Header.Set("Authorization", "Bearer secret-key")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, want, svc.trendDays)
	}
}

func TestBudgetEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubUseCase{})
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/budget", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status port.BudgetStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.Equal(t, 42, status.Remaining)
}

func TestExportSTIXRoute(t *testing.T) {
	svc := &stubUseCase{stixBundle: &port.STIXBundle{Type: "bundle", ID: "bundle--x"}}
	h := newTestHandler(t, svc)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/campaigns/7/stix", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bundle port.STIXBundle
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bundle))
	require.Equal(t, "bundle", bundle.Type)

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/v1/campaigns/abc/stix", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
