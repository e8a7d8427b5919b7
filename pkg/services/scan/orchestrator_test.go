package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/models/store"
)

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) Collect(
	ctx context.Context,
	accountID, region string,
	kind domain.ResourceKind,
) ([]domain.Resource, error) {
	args := m.Called(ctx, accountID, region, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Resource), args.Error(1)
}

type mockCommitter struct {
	mock.Mock
}

func (m *mockCommitter) Commit(
	ctx context.Context,
	record store.ScanRecord,
	violations []store.ViolationRecord,
) error {
	args := m.Called(ctx, record, violations)
	return args.Error(0)
}

// blockingCollector parks every Collect call until release is closed, so a
// test can hold a scan in flight.
type blockingCollector struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingCollector() *blockingCollector {
	return &blockingCollector{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (c *blockingCollector) Collect(
	ctx context.Context,
	_, _ string,
	_ domain.ResourceKind,
) ([]domain.Resource, error) {
	c.once.Do(func() { close(c.started) })
	select {
	case <-c.release:
		return []domain.Resource{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func emptyKinds(collector *mockCollector, except ...domain.ResourceKind) {
	skip := make(map[domain.ResourceKind]bool)
	for _, k := range except {
		skip[k] = true
	}
	for _, kind := range domain.AllResourceKinds() {
		if !skip[kind] {
			collector.On("Collect", mock.Anything, mock.Anything, mock.Anything, kind).
				Return([]domain.Resource{}, nil)
		}
	}
}

func TestOrchestrator_RunScan(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		cat := testCatalogue(t, []domain.Rule{
			staticRule("R-001", domain.KindStorageBucket, func(r domain.Resource) bool {
				return r.Attrs.Bucket.EncryptionEnabled
			}),
		})

		collector := new(mockCollector)
		emptyKinds(collector, domain.KindStorageBucket)
		collector.On("Collect", mock.Anything, "123456789012", "us-east-1", domain.KindStorageBucket).
			Return([]domain.Resource{
				bucketResource("alpha", false),
				bucketResource("beta", true),
			}, nil)

		committer := new(mockCommitter)
		committer.On("Commit", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		o := NewOrchestrator(collector, committer, cat)
		result, err := o.RunScan(ctx, "123456789012", "us-east-1", domain.TriggerManual)

		require.NoError(t, err)
		assert.NotEmpty(t, result.ID)
		assert.Equal(t, "123456789012", result.AccountID)
		assert.Equal(t, domain.TriggerManual, result.TriggeredBy)
		assert.Equal(t, 2, result.ResourcesScanned)
		assert.Equal(t, 2, result.ChecksEvaluated)
		assert.Equal(t, 50, result.ComplianceScore)
		require.Len(t, result.Violations, 1)
		assert.Equal(t, "alpha", result.Violations[0].ResourceID)

		committer.AssertNumberOfCalls(t, "Commit", 1)

		// Finished scans release the in-flight slot.
		_, busy := o.InFlight("123456789012", "us-east-1")
		assert.False(t, busy)
	})

	t.Run("second scan for same account and region is rejected", func(t *testing.T) {
		collector := newBlockingCollector()
		committer := new(mockCommitter)
		committer.On("Commit", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		o := NewOrchestrator(collector, committer, testCatalogue(t, nil))

		done := make(chan error, 1)
		go func() {
			_, err := o.RunScan(ctx, "123456789012", "us-east-1", domain.TriggerManual)
			done <- err
		}()
		<-collector.started

		_, err := o.RunScan(ctx, "123456789012", "us-east-1", domain.TriggerScheduled)
		assert.ErrorIs(t, err, ErrScanInProgress)

		// A different region is an independent slot.
		state, busy := o.InFlight("123456789012", "us-east-1")
		assert.True(t, busy)
		assert.Equal(t, StateFetching, state)
		_, busy = o.InFlight("123456789012", "eu-west-1")
		assert.False(t, busy)

		close(collector.release)
		require.NoError(t, <-done)

		// The slot frees up once the first scan completes.
		_, err = o.RunScan(ctx, "123456789012", "us-east-1", domain.TriggerManual)
		assert.NoError(t, err)
	})

	t.Run("fetch failure aborts without commit", func(t *testing.T) {
		collector := new(mockCollector)
		emptyKinds(collector, domain.KindManagedDatabase)
		collector.On("Collect", mock.Anything, mock.Anything, mock.Anything, domain.KindManagedDatabase).
			Return(nil, errors.New("AccessDenied"))

		committer := new(mockCommitter)

		o := NewOrchestrator(collector, committer, testCatalogue(t, nil))
		result, err := o.RunScan(ctx, "123456789012", "us-east-1", domain.TriggerManual)

		assert.Nil(t, result)
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, domain.KindManagedDatabase, fetchErr.Kind)
		committer.AssertNotCalled(t, "Commit")
	})

	t.Run("commit failure surfaces as persist error", func(t *testing.T) {
		collector := new(mockCollector)
		emptyKinds(collector)

		committer := new(mockCommitter)
		committer.On("Commit", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("disk full"))

		o := NewOrchestrator(collector, committer, testCatalogue(t, nil))
		result, err := o.RunScan(ctx, "123456789012", "us-east-1", domain.TriggerManual)

		assert.Nil(t, result)
		var persistErr *PersistError
		assert.ErrorAs(t, err, &persistErr)
	})

	t.Run("cancellation during fetch aborts the scan", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		collector := newBlockingCollector()
		committer := new(mockCommitter)

		o := NewOrchestrator(collector, committer, testCatalogue(t, nil))

		done := make(chan error, 1)
		go func() {
			_, err := o.RunScan(cancelCtx, "123456789012", "us-east-1", domain.TriggerManual)
			done <- err
		}()
		<-collector.started
		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("scan did not abort after cancellation")
		}
		committer.AssertNotCalled(t, "Commit")
	})
}
