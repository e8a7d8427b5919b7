package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/scan"
)

// ScanRunner is the trigger boundary into the orchestrator.
type ScanRunner interface {
	RunScan(ctx context.Context, accountID, region string, trigger domain.TriggeredBy) (*domain.Scan, error)
}

type Target struct {
	AccountID string
	Region    string
}

type Config struct {
	Interval time.Duration
	Targets  []Target
}

// Monitor re-runs scans for a fixed set of account/region targets on an
// interval. It is only a trigger: each tick is an ordinary point-in-time
// batch scan recorded as triggered_by=scheduled.
type Monitor struct {
	runner ScanRunner
	config Config
	done   chan struct{}
}

func New(runner ScanRunner, config Config) *Monitor {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	return &Monitor{
		runner: runner,
		config: config,
		done:   make(chan struct{}),
	}
}

func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Run blocks until ctx is cancelled, scanning every target once per interval.
// A target whose scan is already in flight is skipped for that tick; other
// failures are logged and retried on the next tick.
func (m *Monitor) Run(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	defer close(m.done)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduled monitoring stopped")
			return
		case <-ticker.C:
			m.scanTargets(ctx)
		}
	}
}

func (m *Monitor) scanTargets(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	for _, target := range m.config.Targets {
		result, err := m.runner.RunScan(ctx, target.AccountID, target.Region, domain.TriggerScheduled)
		switch {
		case errors.Is(err, scan.ErrScanInProgress):
			logger.Debug().
				Str("account_id", target.AccountID).
				Str("region", target.Region).
				Msg("scan already running, tick skipped")
		case err != nil:
			logger.Error().Err(err).
				Str("account_id", target.AccountID).
				Str("region", target.Region).
				Msg("scheduled scan failed")
		default:
			logger.Info().
				Str("scan_id", result.ID).
				Str("account_id", target.AccountID).
				Int("score", result.ComplianceScore).
				Msg("scheduled scan complete")
		}
	}
}
