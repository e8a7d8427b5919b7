package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-atlas/pkg/models/api"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	scansvc "github.com/de-tools/compliance-atlas/pkg/services/scan"
	scanstore "github.com/de-tools/compliance-atlas/pkg/store/duckdb/scan"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) RunScan(
	ctx context.Context,
	accountID, region string,
	trigger domain.TriggeredBy,
) (*domain.Scan, error) {
	args := m.Called(ctx, accountID, region, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scan), args.Error(1)
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) List(
	ctx context.Context,
	page, pageSize int,
	accountID string,
) ([]domain.ScanSummary, error) {
	args := m.Called(ctx, page, pageSize, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScanSummary), args.Error(1)
}

func (m *mockHistory) Get(ctx context.Context, scanID string) (*domain.Scan, error) {
	args := m.Called(ctx, scanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scan), args.Error(1)
}

func (m *mockHistory) Latest(ctx context.Context, accountID string) (*domain.Scan, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scan), args.Error(1)
}

func (m *mockHistory) Trends(
	ctx context.Context,
	accountID string,
	days int,
) ([]domain.TrendPoint, error) {
	args := m.Called(ctx, accountID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrendPoint), args.Error(1)
}

type mockReviewer struct {
	mock.Mock
}

func (m *mockReviewer) Review(
	ctx context.Context,
	accountID, region string,
) (*domain.AccessReview, error) {
	args := m.Called(ctx, accountID, region)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessReview), args.Error(1)
}

func setupServer(runner *mockRunner, history *mockHistory) *httptest.Server {
	return setupServerWithReviewer(runner, history, new(mockReviewer))
}

func setupServerWithReviewer(
	runner *mockRunner,
	history *mockHistory,
	reviewer *mockReviewer,
) *httptest.Server {
	router := ConfigureRouter(Config{
		Dependencies: Dependencies{
			Runner:  runner,
			History: history,
			Review:  reviewer,
			Logger:  zerolog.Nop(),
		},
	})
	return httptest.NewServer(router)
}

func sampleScan() *domain.Scan {
	return &domain.Scan{
		ID:               "scan-001",
		AccountID:        "123456789012",
		Region:           "us-east-1",
		Timestamp:        time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
		TriggeredBy:      domain.TriggerManual,
		ResourcesScanned: 4,
		ChecksEvaluated:  16,
		ComplianceScore:  88,
		Breakdown:        domain.SeverityBreakdown{Critical: 1, Low: 1},
		Violations: []domain.Violation{
			{
				ResourceID:   "data-bucket",
				ResourceKind: domain.KindStorageBucket,
				RuleID:       "S3-001",
				Severity:     domain.SeverityCritical,
				Framework:    domain.FrameworkNIST80053,
				ControlRef:   "SC-28",
				Description:  "bucket has no default encryption",
				Remediation:  "enable default bucket encryption",
			},
			{
				ResourceID:   "data-bucket",
				ResourceKind: domain.KindStorageBucket,
				RuleID:       "S3-004",
				Severity:     domain.SeverityLow,
				Framework:    domain.FrameworkISO27001,
				ControlRef:   "A.8.9",
				Description:  "bucket has versioning disabled",
				Remediation:  "enable versioning",
			},
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupServer(new(mockRunner), new(mockHistory))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestCreateScanEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		runner := new(mockRunner)
		runner.On("RunScan", mock.Anything, "123456789012", "us-east-1", domain.TriggerManual).
			Return(sampleScan(), nil)

		ts := setupServer(runner, new(mockHistory))
		defer ts.Close()

		resp, err := http.Post(ts.URL+"/api/v1/scans", "application/json",
			strings.NewReader(`{"account_id": "123456789012", "region": "us-east-1"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var scan api.Scan
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&scan))
		assert.Equal(t, "scan-001", scan.ScanID)
		assert.Equal(t, 88, scan.ComplianceScore)
		assert.Equal(t, 1, scan.SeverityBreakdown.Critical)
		require.Len(t, scan.Violations, 2)
		assert.Equal(t, api.SeverityCritical, scan.Violations[0].Severity)
		assert.Equal(t, "NIST SP 800-53 SC-28", scan.Violations[0].Framework)
		runner.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		ts := setupServer(new(mockRunner), new(mockHistory))
		defer ts.Close()

		resp, err := http.Post(ts.URL+"/api/v1/scans", "application/json",
			strings.NewReader(`{"account_id": "123456789012"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := setupServer(new(mockRunner), new(mockHistory))
		defer ts.Close()

		resp, err := http.Post(ts.URL+"/api/v1/scans", "application/json",
			strings.NewReader(`{`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("scan already in progress", func(t *testing.T) {
		runner := new(mockRunner)
		runner.On("RunScan", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, scansvc.ErrScanInProgress)

		ts := setupServer(runner, new(mockHistory))
		defer ts.Close()

		resp, err := http.Post(ts.URL+"/api/v1/scans", "application/json",
			strings.NewReader(`{"account_id": "123456789012", "region": "us-east-1"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("fetch failure maps to bad gateway", func(t *testing.T) {
		runner := new(mockRunner)
		runner.On("RunScan", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &scansvc.FetchError{Kind: domain.KindStorageBucket})

		ts := setupServer(runner, new(mockHistory))
		defer ts.Close()

		resp, err := http.Post(ts.URL+"/api/v1/scans", "application/json",
			strings.NewReader(`{"account_id": "123456789012", "region": "us-east-1"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}

func TestDashboardEndpoint(t *testing.T) {
	t.Run("latest scan", func(t *testing.T) {
		history := new(mockHistory)
		history.On("Latest", mock.Anything, "").Return(sampleScan(), nil)

		ts := setupServer(new(mockRunner), history)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/dashboard")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var dashboard api.Dashboard
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&dashboard))
		assert.Equal(t, 88, dashboard.ComplianceScore)
		assert.Equal(t, "scan-001", dashboard.ScanID)
		assert.Equal(t, 2, dashboard.TotalViolations)
		assert.Len(t, dashboard.Violations, 2)
	})

	t.Run("no history yet", func(t *testing.T) {
		history := new(mockHistory)
		history.On("Latest", mock.Anything, "").Return(nil, scanstore.ErrNoScans)

		ts := setupServer(new(mockRunner), history)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/dashboard")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var dashboard api.Dashboard
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&dashboard))
		assert.Equal(t, 100, dashboard.ComplianceScore)
		assert.Empty(t, dashboard.ScanID)
		assert.Empty(t, dashboard.Violations)
	})

	t.Run("severity filter", func(t *testing.T) {
		history := new(mockHistory)
		history.On("Latest", mock.Anything, "").Return(sampleScan(), nil)

		ts := setupServer(new(mockRunner), history)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/dashboard?severity=critical")
		require.NoError(t, err)
		defer resp.Body.Close()

		var dashboard api.Dashboard
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&dashboard))
		assert.Equal(t, 1, dashboard.TotalViolations)
		require.Len(t, dashboard.Violations, 1)
		assert.Equal(t, api.SeverityCritical, dashboard.Violations[0].Severity)
	})
}

func TestScanHistoryEndpoints(t *testing.T) {
	t.Run("list scans", func(t *testing.T) {
		history := new(mockHistory)
		history.On("List", mock.Anything, 2, 10, "").Return([]domain.ScanSummary{
			{ID: "scan-001", ComplianceScore: 90, ViolationCount: 3},
		}, nil)

		ts := setupServer(new(mockRunner), history)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/scans?page=2&limit=10")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body api.ScanHistory
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 2, body.Page)
		assert.Equal(t, 10, body.Limit)
		require.Len(t, body.Scans, 1)
		assert.Equal(t, "scan-001", body.Scans[0].ScanID)
	})

	t.Run("get scan by id", func(t *testing.T) {
		history := new(mockHistory)
		history.On("Get", mock.Anything, "scan-001").Return(sampleScan(), nil)

		ts := setupServer(new(mockRunner), history)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/scans/scan-001")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var scan api.Scan
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&scan))
		assert.Equal(t, "scan-001", scan.ScanID)
	})

	t.Run("unknown scan id", func(t *testing.T) {
		history := new(mockHistory)
		history.On("Get", mock.Anything, "scan-missing").Return(nil, scanstore.ErrNotFound)

		ts := setupServer(new(mockRunner), history)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/scans/scan-missing")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestTrendsEndpoint(t *testing.T) {
	t.Run("default window", func(t *testing.T) {
		history := new(mockHistory)
		history.On("Trends", mock.Anything, "", 30).Return([]domain.TrendPoint{
			{ComplianceScore: 80, ViolationCount: 5},
			{ComplianceScore: 90, ViolationCount: 2},
		}, nil)

		ts := setupServer(new(mockRunner), history)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/trends")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body api.Trends
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 30, body.Days)
		assert.Len(t, body.Trends, 2)
	})

	t.Run("invalid days", func(t *testing.T) {
		ts := setupServer(new(mockRunner), new(mockHistory))
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/trends?days=zero")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAccessReviewEndpoint(t *testing.T) {
	t.Run("review with risk rollup", func(t *testing.T) {
		reviewer := new(mockReviewer)
		reviewer.On("Review", mock.Anything, "123456789012", "eu-west-1").
			Return(&domain.AccessReview{
				AccountID:   "123456789012",
				Region:      "eu-west-1",
				GeneratedAt: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
				Principals: []domain.PrincipalReview{
					{
						Name:             "root-admin",
						PrincipalType:    "user",
						AttachedPolicies: []string{"AdministratorAccess"},
						TotalPolicies:    1,
						RiskLevel:        domain.SeverityCritical,
						RiskReasons:      []string{"has AdministratorAccess policy"},
					},
					{
						Name:          "readonly-auditor",
						PrincipalType: "role",
						RiskLevel:     domain.SeverityLow,
					},
				},
				Summary: domain.ReviewSummary{
					TotalPrincipals: 2,
					Breakdown:       domain.SeverityBreakdown{Critical: 1, Low: 1},
				},
			}, nil)

		ts := setupServerWithReviewer(new(mockRunner), new(mockHistory), reviewer)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/access-reviews?account_id=123456789012&region=eu-west-1")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body api.AccessReview
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 2, body.TotalPrincipals)
		assert.Equal(t, 1, body.RiskBreakdown.Critical)
		require.Len(t, body.Principals, 2)
		assert.Equal(t, "root-admin", body.Principals[0].Name)
		assert.Equal(t, api.SeverityCritical, body.Principals[0].RiskLevel)
		reviewer.AssertExpectations(t)
	})

	t.Run("region defaults", func(t *testing.T) {
		reviewer := new(mockReviewer)
		reviewer.On("Review", mock.Anything, "", "us-east-1").
			Return(&domain.AccessReview{Region: "us-east-1"}, nil)

		ts := setupServerWithReviewer(new(mockRunner), new(mockHistory), reviewer)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/access-reviews")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		reviewer.AssertExpectations(t)
	})

	t.Run("collect failure maps to bad gateway", func(t *testing.T) {
		reviewer := new(mockReviewer)
		reviewer.On("Review", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("collecting identity principals: throttled"))

		ts := setupServerWithReviewer(new(mockRunner), new(mockHistory), reviewer)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/v1/access-reviews")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})
}
