// Package refresh sequences the daily narrow -> trigger -> wait -> restore
// cycle for every managed dataset and aggregates the per-dataset outcomes.
package refresh

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/bvmarkets/quickrefresh/pkg/config"
	"github.com/bvmarkets/quickrefresh/pkg/dataset"
	"github.com/bvmarkets/quickrefresh/pkg/sqlrewrite"
)

// QueryTransform rewrites a dataset's SQL and reports how many predicates it
// replaced.
type QueryTransform func(sql string) (string, int)

// DatasetService is the remote dataset-management surface the coordinator
// drives. Implemented by pkg/quicksight; faked in tests.
type DatasetService interface {
	RewriteQuery(ctx context.Context, datasetID string, transform QueryTransform) (int, error)
	StartIngestion(ctx context.Context, datasetID, ingestionID string) error
	IngestionStatus(ctx context.Context, datasetID, ingestionID string) (IngestionStatus, string, error)
}

// Coordinator runs the refresh cycle across a dataset inventory, either
// sequentially or with a bounded worker pool. Datasets share no mutable
// state, so workers need no locking; each writes its own outcome slot.
type Coordinator struct {
	svc DatasetService
	cfg config.RefreshConfig
	now func() time.Time
}

func NewCoordinator(svc DatasetService, cfg config.RefreshConfig) *Coordinator {
	return &Coordinator{svc: svc, cfg: cfg, now: time.Now}
}

// Run processes every dataset exactly once and returns the aggregated
// summary. Per-dataset failures never abort the run.
func (c *Coordinator) Run(ctx context.Context, specs []dataset.Spec, targetDate string) Summary {
	log.Printf("[Refresh] Starting refresh for %d dataset(s), target date %s", len(specs), targetDate)

	outcomes := make([]Outcome, len(specs))

	workers := 1
	if c.cfg.Mode == "parallel" && c.cfg.Workers > 1 {
		workers = c.cfg.Workers
	}

	if workers > 1 {
		g := new(errgroup.Group)
		g.SetLimit(workers)
		for i, spec := range specs {
			i, spec := i, spec
			g.Go(func() error {
				outcomes[i] = c.processDataset(ctx, spec, targetDate, i+1)
				return nil
			})
		}
		// Workers never return errors; failures live in the outcomes.
		_ = g.Wait()
	} else {
		for i, spec := range specs {
			outcomes[i] = c.processDataset(ctx, spec, targetDate, i+1)
		}
	}

	summary := Summary{
		TargetDate:    targetDate,
		TotalDatasets: len(specs),
		Results:       outcomes,
	}
	for i := range outcomes {
		if outcomes[i].Status == OutcomeSuccess {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	if len(specs) > 0 {
		summary.SuccessRate = fmt.Sprintf("%.1f%%", float64(summary.Successful)/float64(len(specs))*100)
	}

	log.Printf("[Refresh] Summary: %d/%d successful (%s)", summary.Successful, summary.TotalDatasets, summary.SuccessRate)
	return summary
}

// processDataset executes the strictly ordered per-dataset cycle. Once the
// narrow step has committed, the restore step always runs: the single-day
// filter must never outlive this run.
func (c *Coordinator) processDataset(ctx context.Context, spec dataset.Spec, targetDate string, order int) Outcome {
	out := Outcome{
		DatasetID:         spec.ID,
		DatasetName:       spec.Name,
		TargetDate:        targetDate,
		RollingWindowDays: spec.RollingWindowDays,
		Status:            OutcomeFailed,
		Order:             order,
	}

	rw := sqlrewrite.New(spec.DateColumn)
	log.Printf("[Refresh] [%d] Processing %s (%d-day window)", order, spec.Name, spec.RollingWindowDays)

	// Step 1: narrow the query to the target date.
	replaced, err := c.svc.RewriteQuery(ctx, spec.ID, func(sql string) (string, int) {
		return rw.Narrow(sql, targetDate)
	})
	if err != nil {
		// Nothing committed, so there is nothing to revert.
		log.Printf("[Refresh] [%d] Failed to narrow %s: %v", order, spec.Name, err)
		out.Error = err.Error()
		return out
	}
	out.QueryNarrowed = true
	if replaced == 0 {
		log.Printf("[Refresh] [%d] No rolling-window predicate found in %s, query left as-is", order, spec.Name)
	}

	// Step 2: trigger the incremental reload. Not retried.
	ingestionID := c.ingestionID(spec.ID, targetDate)
	trigErr := c.svc.StartIngestion(ctx, spec.ID, ingestionID)
	if trigErr != nil {
		log.Printf("[Refresh] [%d] Failed to trigger refresh for %s: %v", order, spec.Name, trigErr)
	} else {
		out.IngestionID = ingestionID

		// Step 3: give the reload a bounded window to pick up the narrowed
		// query before it changes again. A timeout is a warning, not a failure.
		if c.cfg.WaitForStart {
			waiter := &Waiter{Poller: c.svc, Interval: c.cfg.PollInterval, Timeout: c.cfg.StartTimeout}
			out.RefreshStarted = waiter.WaitForStart(ctx, spec.ID, ingestionID)
			if !out.RefreshStarted {
				log.Printf("[Refresh] [%d] Refresh didn't start in time for %s, proceeding anyway", order, spec.Name)
			}
		}
	}

	// Step 4: restore the rolling window unconditionally.
	_, widenErr := c.svc.RewriteQuery(ctx, spec.ID, func(sql string) (string, int) {
		return rw.Widen(sql, spec.RollingWindowDays)
	})
	out.QueryRestored = widenErr == nil
	if widenErr != nil {
		log.Printf("[Refresh] [%d] Failed to restore %s to %d-day window: %v",
			order, spec.Name, spec.RollingWindowDays, widenErr)
	}

	switch {
	case trigErr != nil:
		out.Error = trigErr.Error()
	case widenErr != nil:
		out.Error = widenErr.Error()
	default:
		out.Status = OutcomeSuccess
		log.Printf("[Refresh] [%d] Successfully processed %s", order, spec.Name)
	}

	// Optional long wait: record the terminal result without changing the
	// dataset's outcome.
	if out.Status == OutcomeSuccess && c.cfg.WaitForCompletion {
		waiter := &Waiter{Poller: c.svc, Interval: c.cfg.CompletionPollInterval, Timeout: c.cfg.CompletionTimeout}
		res := waiter.WaitForCompletion(ctx, spec.ID, ingestionID)
		out.IngestionResult = res.Status
	}

	return out
}

// ingestionID builds a job handle that stays readable in the service console
// and distinguishes datasets triggered within the same second.
func (c *Coordinator) ingestionID(datasetID, targetDate string) string {
	return fmt.Sprintf("daily-%s-%s-%08x",
		targetDate, c.now().Format("150405"), uint32(xxhash.Sum64String(datasetID)))
}
