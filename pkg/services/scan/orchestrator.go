package scan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/de-tools/compliance-atlas/pkg/adapters"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/models/store"
	"github.com/de-tools/compliance-atlas/pkg/services/catalogue"
	"github.com/de-tools/compliance-atlas/pkg/services/collect"
)

type State string

const (
	StatePending     State = "PENDING"
	StateFetching    State = "FETCHING"
	StateEvaluating  State = "EVALUATING"
	StateAggregating State = "AGGREGATING"
	StatePersisting  State = "PERSISTING"
	StateComplete    State = "COMPLETE"
	StateFailed      State = "FAILED"
)

// Committer is the persistence boundary: one atomic, durable write per scan.
type Committer interface {
	Commit(ctx context.Context, record store.ScanRecord, violations []store.ViolationRecord) error
}

// Orchestrator drives one scan through
// PENDING -> FETCHING -> EVALUATING -> AGGREGATING -> PERSISTING -> COMPLETE.
// The in-flight registry is its only mutable state; at most one scan runs per
// (account, region) pair.
type Orchestrator struct {
	collector collect.Collector
	store     Committer
	cat       *catalogue.Catalogue

	mu       sync.Mutex
	inflight map[string]State
}

func NewOrchestrator(collector collect.Collector, committer Committer, cat *catalogue.Catalogue) *Orchestrator {
	return &Orchestrator{
		collector: collector,
		store:     committer,
		cat:       cat,
		inflight:  make(map[string]State),
	}
}

// InFlight reports the current state of a running scan, if any.
func (o *Orchestrator) InFlight(accountID, region string) (State, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	state, ok := o.inflight[scanKey(accountID, region)]
	return state, ok
}

func (o *Orchestrator) RunScan(
	ctx context.Context,
	accountID, region string,
	trigger domain.TriggeredBy,
) (*domain.Scan, error) {
	key := scanKey(accountID, region)

	o.mu.Lock()
	if _, busy := o.inflight[key]; busy {
		o.mu.Unlock()
		return nil, ErrScanInProgress
	}
	o.inflight[key] = StatePending
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.inflight, key)
		o.mu.Unlock()
	}()

	logger := zerolog.Ctx(ctx).With().
		Str("account_id", accountID).
		Str("region", region).
		Logger()
	ctx = logger.WithContext(ctx)

	o.setState(key, StateFetching)
	resources, err := o.fetchAll(ctx, accountID, region)
	if err != nil {
		o.setState(key, StateFailed)
		logger.Error().Err(err).Msg("scan failed during fetch")
		return nil, err
	}

	o.setState(key, StateEvaluating)
	if err := ctx.Err(); err != nil {
		o.setState(key, StateFailed)
		return nil, err
	}
	eval := Evaluate(ctx, resources, o.cat)

	o.setState(key, StateAggregating)
	score, breakdown := Score(eval.Checks, eval.Violations)

	result := domain.Scan{
		ID:               uuid.NewString(),
		AccountID:        accountID,
		Region:           region,
		Timestamp:        time.Now().UTC(),
		TriggeredBy:      trigger,
		ResourcesScanned: len(resources),
		ChecksEvaluated:  eval.Checks,
		RuleFaults:       len(eval.Faults),
		ComplianceScore:  score,
		Breakdown:        breakdown,
		Violations:       eval.Violations,
	}

	// Last cancellation point: once the commit starts it either fully
	// completes or the scan fails, never a partial write.
	if err := ctx.Err(); err != nil {
		o.setState(key, StateFailed)
		return nil, err
	}

	o.setState(key, StatePersisting)
	record, violations := adapters.MapScanDomainToStore(result)
	if err := o.store.Commit(context.WithoutCancel(ctx), record, violations); err != nil {
		o.setState(key, StateFailed)
		logger.Error().Err(err).Msg("scan failed during commit")
		return nil, &PersistError{Err: err}
	}

	o.setState(key, StateComplete)
	logger.Info().
		Str("scan_id", result.ID).
		Int("resources", result.ResourcesScanned).
		Int("violations", len(result.Violations)).
		Int("score", result.ComplianceScore).
		Msg("scan complete")
	return &result, nil
}

// fetchAll collects every resource kind in parallel and reassembles the
// results in kind order, so the evaluator sees a deterministic resource
// sequence regardless of which fetch finished first.
func (o *Orchestrator) fetchAll(ctx context.Context, accountID, region string) ([]domain.Resource, error) {
	kinds := domain.AllResourceKinds()
	buckets := make([][]domain.Resource, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			resources, err := o.collector.Collect(gctx, accountID, region, kind)
			if err != nil {
				return &FetchError{Kind: kind, Err: err}
			}
			buckets[i] = resources
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Resource
	for _, bucket := range buckets {
		all = append(all, bucket...)
	}
	return all, nil
}

func (o *Orchestrator) setState(key string, state State) {
	o.mu.Lock()
	o.inflight[key] = state
	o.mu.Unlock()
}

func scanKey(accountID, region string) string {
	return accountID + "/" + region
}
