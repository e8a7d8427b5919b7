package scan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-atlas/pkg/adapters"
	"github.com/de-tools/compliance-atlas/pkg/models/api"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/history"
	"github.com/de-tools/compliance-atlas/pkg/services/review"
	scansvc "github.com/de-tools/compliance-atlas/pkg/services/scan"
	scanstore "github.com/de-tools/compliance-atlas/pkg/store/duckdb/scan"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500

	defaultReviewRegion = "us-east-1"
)

// ScanRunner triggers one scan and blocks until it completes or fails.
type ScanRunner interface {
	RunScan(ctx context.Context, accountID, region string, trigger domain.TriggeredBy) (*domain.Scan, error)
}

type Handler struct {
	runner   ScanRunner
	history  history.Reader
	reviewer review.Reviewer
}

func NewHandler(runner ScanRunner, reader history.Reader, reviewer review.Reviewer) *Handler {
	return &Handler{
		runner:   runner,
		history:  reader,
		reviewer: reviewer,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) CreateScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AccountID == "" || req.Region == "" {
		http.Error(w, "account_id and region are required", http.StatusBadRequest)
		return
	}

	result, err := h.runner.RunScan(ctx, req.AccountID, req.Region, domain.TriggerManual)
	if err != nil {
		h.writeScanError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(ctx, w, adapters.MapScanDomainToApi(*result))
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit := pagination(r)
	severity := r.URL.Query().Get("severity")
	accountID := r.URL.Query().Get("account_id")

	latest, err := h.history.Latest(ctx, accountID)
	if errors.Is(err, scanstore.ErrNoScans) {
		// No history yet: vacuously compliant, nothing to display.
		writeJSON(ctx, w, api.Dashboard{
			ComplianceScore: 100,
			Page:            page,
			Limit:           limit,
			Violations:      []api.Violation{},
		})
		return
	}
	if err != nil {
		h.writeInternalError(ctx, w, err)
		return
	}

	filtered := latest.Violations
	if severity != "" {
		filtered = make([]domain.Violation, 0)
		for _, v := range latest.Violations {
			if string(adapters.MapSeverityDomainToApi(v.Severity)) == severity {
				filtered = append(filtered, v)
			}
		}
	}

	start := (page - 1) * limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	violations := make([]api.Violation, 0, end-start)
	for _, v := range filtered[start:end] {
		violations = append(violations, adapters.MapViolationDomainToApi(v))
	}

	writeJSON(ctx, w, api.Dashboard{
		ComplianceScore:   latest.ComplianceScore,
		ScanID:            latest.ID,
		Timestamp:         &latest.Timestamp,
		SeverityBreakdown: adapters.MapBreakdownDomainToApi(latest.Breakdown),
		TotalViolations:   len(filtered),
		Page:              page,
		Limit:             limit,
		Violations:        violations,
	})
}

func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit := pagination(r)
	accountID := r.URL.Query().Get("account_id")

	summaries, err := h.history.List(ctx, page, limit, accountID)
	if err != nil {
		h.writeInternalError(ctx, w, err)
		return
	}

	resp := api.ScanHistory{
		Page:  page,
		Limit: limit,
		Scans: make([]api.ScanSummary, 0, len(summaries)),
	}
	for _, s := range summaries {
		resp.Scans = append(resp.Scans, adapters.MapScanSummaryDomainToApi(s))
	}
	writeJSON(ctx, w, resp)
}

func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	scanID := chi.URLParam(r, "scanID")

	result, err := h.history.Get(ctx, scanID)
	if errors.Is(err, scanstore.ErrNotFound) {
		http.Error(w, "scan not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeInternalError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, adapters.MapScanDomainToApi(*result))
}

func (h *Handler) GetTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := r.URL.Query().Get("account_id")

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid 'days' parameter", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	points, err := h.history.Trends(ctx, accountID, days)
	if err != nil {
		h.writeInternalError(ctx, w, err)
		return
	}

	resp := api.Trends{
		AccountID: accountID,
		Days:      days,
		Trends:    make([]api.TrendPoint, 0, len(points)),
	}
	for _, p := range points {
		resp.Trends = append(resp.Trends, adapters.MapTrendPointDomainToApi(p))
	}
	writeJSON(ctx, w, resp)
}

func (h *Handler) GetAccessReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := r.URL.Query().Get("account_id")
	region := r.URL.Query().Get("region")
	if region == "" {
		region = defaultReviewRegion
	}

	result, err := h.reviewer.Review(ctx, accountID, region)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("access review failed")
		http.Error(w, "access review failed", http.StatusBadGateway)
		return
	}

	writeJSON(ctx, w, adapters.MapAccessReviewDomainToApi(*result))
}

func (h *Handler) writeScanError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := zerolog.Ctx(ctx)

	var fetchErr *scansvc.FetchError
	switch {
	case errors.Is(err, scansvc.ErrScanInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &fetchErr):
		logger.Error().Err(err).Msg("scan failed at fetch boundary")
		http.Error(w, fetchErr.Error(), http.StatusBadGateway)
	default:
		logger.Error().Err(err).Msg("scan failed")
		http.Error(w, "scan failed", http.StatusInternalServerError)
	}
}

func (h *Handler) writeInternalError(ctx context.Context, w http.ResponseWriter, err error) {
	zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

func pagination(r *http.Request) (page, limit int) {
	page = 1
	limit = defaultPageSize

	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxPageSize {
			limit = parsed
		}
	}
	return page, limit
}
