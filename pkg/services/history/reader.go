package history

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/compliance-atlas/pkg/adapters"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	storemodels "github.com/de-tools/compliance-atlas/pkg/models/store"
	scanstore "github.com/de-tools/compliance-atlas/pkg/store/duckdb/scan"
)

// Reader exposes read-only queries over committed scans. Errors from the
// store (scanstore.ErrNotFound, scanstore.ErrNoScans) pass through so callers
// can map them to their own surface.
type Reader interface {
	List(ctx context.Context, page, pageSize int, accountID string) ([]domain.ScanSummary, error)
	Get(ctx context.Context, scanID string) (*domain.Scan, error)
	Latest(ctx context.Context, accountID string) (*domain.Scan, error)
	Trends(ctx context.Context, accountID string, days int) ([]domain.TrendPoint, error)
}

type reader struct {
	store scanstore.Store
}

func NewReader(store scanstore.Store) (Reader, error) {
	if store == nil {
		return nil, fmt.Errorf("scan store is nil")
	}
	return &reader{store: store}, nil
}

func (r *reader) List(ctx context.Context, page, pageSize int, accountID string) ([]domain.ScanSummary, error) {
	records, err := r.store.List(ctx, storemodels.ScanFilter{
		AccountID: accountID,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ScanSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, adapters.MapScanRecordStoreToSummary(record))
	}
	return summaries, nil
}

func (r *reader) Get(ctx context.Context, scanID string) (*domain.Scan, error) {
	record, violations, err := r.store.Get(ctx, scanID)
	if err != nil {
		return nil, err
	}
	result := adapters.MapScanRecordStoreToDomain(*record, violations)
	return &result, nil
}

func (r *reader) Latest(ctx context.Context, accountID string) (*domain.Scan, error) {
	record, violations, err := r.store.Latest(ctx, accountID)
	if err != nil {
		return nil, err
	}
	result := adapters.MapScanRecordStoreToDomain(*record, violations)
	return &result, nil
}

func (r *reader) Trends(ctx context.Context, accountID string, days int) ([]domain.TrendPoint, error) {
	if days < 1 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	records, err := r.store.Since(ctx, accountID, since)
	if err != nil {
		return nil, err
	}

	points := make([]domain.TrendPoint, 0, len(records))
	for _, record := range records {
		points = append(points, adapters.MapScanRecordStoreToTrendPoint(record))
	}
	return points, nil
}
