/*
handlers_test.go - HTTP tests for the v2 API

Tests for:
- Authentication (dev client, bearer tokens)
- Policy holders, e-mails and commodities
- Policy listing, detail and workbook export
- Lookups, report queueing and scenarios
- Health and metrics endpoints
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wsr/cims/access"
	"github.com/wsr/cims/api"
	"github.com/wsr/cims/metrics"
	"github.com/wsr/cims/report"
	"github.com/wsr/cims/service"
	"github.com/wsr/cims/store/sqlite"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const (
	signingKey = "test-signing-key"
	maryEmail  = "mary.jones@highplains.example.com"
)

type fakeQueue struct {
	got []report.ActualHistoryRequest
}

func (f *fakeQueue) QueueActualHistory(_ context.Context, req report.ActualHistoryRequest) (string, error) {
	f.got = append(f.got, req)
	return "req-42", nil
}

type server struct {
	handler *api.Handler
	router  http.Handler
	queue   *fakeQueue
}

// newServer loads the multi-county scenario and runs as an admin dev client.
func newServer(t *testing.T) *server {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	d, ok := api.ScenarioDataset("multi-county")
	require.True(t, ok)
	require.NoError(t, store.Import(context.Background(), d))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	queue := &fakeQueue{}
	svc := service.New(service.Config{Store: store, Reports: queue, Metrics: m})

	h := api.NewHandler(svc, store, nil)
	h.Metrics = m
	h.Gatherer = reg
	h.DevClient = access.Client{Email: "admin@example.com", IsAdmin: true}

	return &server{handler: h, router: api.NewRouter(h, nil), queue: queue}
}

func (s *server) do(t *testing.T, method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

func TestAuth_TokenRequired(t *testing.T) {
	// GIVEN: Token validation is configured
	s := newServer(t)
	tokens := access.NewTokenValidator(signingKey, "cims", "cims-api")
	s.handler.Tokens = tokens

	// WHEN: No token is sent
	rec := s.do(t, http.MethodGet, "/api/v2/policies", nil, nil)

	// THEN: The request is rejected
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// WHEN: A garbage token is sent
	rec = s.do(t, http.MethodGet, "/api/v2/policies", nil, http.Header{"Authorization": {"Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// WHEN: A valid agent token is sent
	token, err := tokens.Issue(access.Client{Email: maryEmail}, time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/v2/policies", nil, http.Header{"Authorization": {"Bearer " + token}})

	// THEN: The agent sees the producer reached through the agency
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[service.PolicyPage](t, rec)
	require.NotEmpty(t, page.Policies)
	for _, p := range page.Policies {
		assert.Equal(t, "7400401", p.PolicyNumber)
	}
}

func TestAuth_HealthAndMetricsArePublic(t *testing.T) {
	s := newServer(t)
	s.handler.Tokens = access.NewTokenValidator(signingKey, "cims", "cims-api")

	rec := s.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[api.HealthDTO](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// POLICY HOLDERS
// =============================================================================

func TestListPolicyHolders(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v2/policy-holders?skip=0&take=10", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.PolicyHoldersResponse](t, rec)
	assert.Equal(t, 10, resp.Take)
	require.NotEmpty(t, resp.Producers)
	assert.Equal(t, "PP4001", resp.Producers[0].ProducerKey)
}

func TestListPolicyHolders_InvalidPaging(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v2/policy-holders?take=lots", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPolicyHolder(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v2/policy-holders/PP4001/2024", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	holder := decode[service.PolicyHolder](t, rec)
	assert.Equal(t, "Double Bar Cattle Co", holder.Producer.BusinessName)
	assert.Equal(t, "Andrews", holder.Address.City)
}

func TestPolicyHolderEmails_RoundTrip(t *testing.T) {
	// GIVEN: A producer without e-mails
	s := newServer(t)

	// WHEN: Addresses are stored
	rec := s.do(t, http.MethodPut, "/api/v2/policy-holders/emails", service.EmailRequest{
		ProducerKey: "PP4001",
		EmailAddresses: []service.EmailEntry{
			{EmailAddress: "owner@doublebar.example.com"},
		},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: They are returned upper-cased
	rec = s.do(t, http.MethodGet, "/api/v2/policy-holders/emails?keys=PP4001", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	emails := decode[[]map[string]any](t, rec)
	require.Len(t, emails, 1)
	assert.Equal(t, "OWNER@DOUBLEBAR.EXAMPLE.COM", emails[0]["email_address"])
}

func TestPolicyHolderEmails_UnknownID(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPut, "/api/v2/policy-holders/emails", service.EmailRequest{
		ProducerKey:    "PP4001",
		EmailAddresses: []service.EmailEntry{{ID: 999, EmailAddress: "x@example.com"}},
	}, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPolicyHolderEmails_InvalidBody(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v2/policy-holders/emails", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolicyHolderCommodities(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v2/policy-holders/commodities?keys=PP4001", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"commodity_abbreviation":"PRF"`)
}

// =============================================================================
// POLICIES
// =============================================================================

func TestListPolicies_Filters(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v2/policies?InsuredName=double", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[service.PolicyPage](t, rec)
	assert.Positive(t, page.Count)

	rec = s.do(t, http.MethodGet, "/api/v2/policies?InsuredName=nobody", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[service.PolicyPage](t, rec).Count)
}

func TestGetPolicy(t *testing.T) {
	// GIVEN: The multi-county scenario
	s := newServer(t)

	// WHEN: Both 2024 insurance records are requested
	rec := s.do(t, http.MethodGet, "/api/v2/policies/detail?year=2024&keys=IF4001,IF4002", nil, nil)

	// THEN: One policy with two counties is returned, names resolved
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var policy struct {
		PolicyNumber      string `json:"policy_number"`
		StateAbbreviation string `json:"state_abbreviation"`
		Counties          []struct {
			CountyName    string `json:"county_name"`
			CommodityName string `json:"commodity_name"`
		} `json:"policy_counties"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &policy))
	assert.Equal(t, "7400401", policy.PolicyNumber)
	assert.Equal(t, "TX", policy.StateAbbreviation)
	require.Len(t, policy.Counties, 2)
	assert.Equal(t, "Anderson", policy.Counties[0].CountyName)
	assert.Equal(t, "Andrews", policy.Counties[1].CountyName)
	assert.Equal(t, "Pasture,Rangeland,Forage", policy.Counties[0].CommodityName)
}

func TestGetPolicy_Errors(t *testing.T) {
	tests := []struct {
		name   string
		client access.Client
		target string
		status int
	}{
		{"missing year", access.Client{IsAdmin: true}, "/api/v2/policies/detail?keys=IF4001", http.StatusBadRequest},
		{"unknown insurance", access.Client{IsAdmin: true}, "/api/v2/policies/detail?year=2024&keys=NOPE", http.StatusNotFound},
		{"not authorized", access.Client{Email: "stranger@example.com"}, "/api/v2/policies/detail?year=2024&keys=IF4001", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)
			s.handler.DevClient = tt.client

			rec := s.do(t, http.MethodGet, tt.target, nil, nil)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[api.ErrorResponse](t, rec).Error)
		})
	}
}

func TestExportPolicy(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v2/policies/detail/export?year=2024&keys=IF4001", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "policy-7400401-2024.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), report.GridsSheet)
}

func TestExportPolicies(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v2/policies/export", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(report.PoliciesSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "7400401", v)
}

// =============================================================================
// LOOKUPS
// =============================================================================

func TestLookups(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v2/lookups/counties?ref=48:001,003", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/api/v2/lookups/agents?ref=AG100:2024", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Jones")

	rec = s.do(t, http.MethodGet, "/api/v2/lookups/states?codes=48,20", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/api/v2/lookups/commodities?codes=0088", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PRF")

	rec = s.do(t, http.MethodGet, "/api/v2/lookups/types", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Haying")
}

func TestLookups_InvalidRef(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v2/lookups/counties?ref=48", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v2/lookups/agents?ref=AG100", nil, nil).Code)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestQueueActualHistoryReport(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/v2/reports/actual-history", service.ActualHistoryReport{
		Year:         2024,
		ProducerKeys: "PP4001",
		AllInOne:     true,
	}, nil)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "req-42", decode[api.QueueReportResponse](t, rec).RequestID)
	require.Len(t, s.queue.got, 1)
	assert.Equal(t, "admin@example.com", s.queue.got[0].AgentEmail)
}

func TestQueueActualHistoryReport_MissingYear(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/api/v2/reports/actual-history", service.ActualHistoryReport{ProducerKeys: "PP4001"}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.queue.got)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestLoadScenario_RequiresAdmin(t *testing.T) {
	// GIVEN: Token validation is configured and an agent holds a valid token
	s := newServer(t)
	tokens := access.NewTokenValidator(signingKey, "cims", "cims-api")
	s.handler.Tokens = tokens
	agentToken, err := tokens.Issue(access.Client{Email: maryEmail}, time.Hour)
	require.NoError(t, err)
	adminToken, err := tokens.Issue(access.Client{Email: "admin@example.com", IsAdmin: true}, time.Hour)
	require.NoError(t, err)

	// WHEN: The agent asks to load a scenario
	rec := s.do(t, http.MethodPost, "/api/v2/scenarios/load", api.LoadScenarioRequest{ScenarioID: "grazing"},
		http.Header{"Authorization": {"Bearer " + agentToken}})

	// THEN: The request is forbidden and the data is untouched
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v2/policies/detail?year=2024&keys=IF4001", nil,
		http.Header{"Authorization": {"Bearer " + adminToken}})
	assert.Equal(t, http.StatusOK, rec.Code)

	// AND: An admin may load it
	rec = s.do(t, http.MethodPost, "/api/v2/scenarios/load", api.LoadScenarioRequest{ScenarioID: "grazing"},
		http.Header{"Authorization": {"Bearer " + adminToken}})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestScenarios(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/api/v2/scenarios", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.ScenarioDTO](t, rec), len(api.Scenarios()))

	// Unknown scenario leaves nothing loaded
	rec = s.do(t, http.MethodPost, "/api/v2/scenarios/load", api.LoadScenarioRequest{ScenarioID: "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v2/scenarios/load", api.LoadScenarioRequest{ScenarioID: "grazing"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v2/scenarios/current", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "grazing", decode[api.ScenarioDTO](t, rec).ID)

	// The previous dataset is gone
	rec = s.do(t, http.MethodGet, "/api/v2/policies/detail?year=2024&keys=IF4001", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenarioDatasets_Assemble(t *testing.T) {
	for _, sc := range api.Scenarios() {
		t.Run(sc.ID, func(t *testing.T) {
			s := newServer(t)
			rec := s.do(t, http.MethodPost, "/api/v2/scenarios/load", api.LoadScenarioRequest{ScenarioID: sc.ID}, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			rec = s.do(t, http.MethodGet, "/api/v2/policies", nil, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			page := decode[service.PolicyPage](t, rec)
			require.NotEmpty(t, page.Policies)

			p := page.Policies[0]
			rec = s.do(t, http.MethodGet, "/api/v2/policies/detail?year="+p.ReinsuranceYear+"&keys="+p.InsuranceKeys, nil, nil)
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}
}
