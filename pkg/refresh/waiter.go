package refresh

import (
	"context"
	"log"
	"time"
)

// StatusPoller reads the current status of a remote ingestion job.
type StatusPoller interface {
	IngestionStatus(ctx context.Context, datasetID, ingestionID string) (IngestionStatus, string, error)
}

// Waiter polls an ingestion's status at a fixed interval until it starts,
// finishes, or the timeout elapses. Poll errors are transient by assumption:
// they are logged and the loop keeps going.
type Waiter struct {
	Poller   StatusPoller
	Interval time.Duration
	Timeout  time.Duration
}

// CompletionResult describes how a completion wait ended.
type CompletionResult struct {
	Status    string `json:"status"` // completed | failed | cancelled | timeout
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail,omitempty"`
}

// WaitForStart polls until the ingestion reaches a started or terminal
// status. It returns false when the timeout (or the context) expires first;
// the caller treats that as a warning, not a failure.
func (w *Waiter) WaitForStart(ctx context.Context, datasetID, ingestionID string) bool {
	deadline := time.Now().Add(w.Timeout)

	for time.Now().Before(deadline) {
		status, _, err := w.Poller.IngestionStatus(ctx, datasetID, ingestionID)
		if err != nil {
			log.Printf("[Waiter] Error checking ingestion %s status: %v", ingestionID, err)
		} else {
			if status.Started() {
				log.Printf("[Waiter] Refresh started for %s - status: %s", datasetID, status)
				return true
			}
			if status.Terminal() {
				// Already finished, very fast refresh. Safe to restore the filter.
				log.Printf("[Waiter] Refresh already finished for %s - status: %s", datasetID, status)
				return true
			}
		}

		if !w.sleep(ctx) {
			return false
		}
	}

	log.Printf("[Waiter] Timeout waiting for refresh to start for %s", datasetID)
	return false
}

// WaitForCompletion is the long variant: it polls until the ingestion reaches
// a terminal status and reports the result, or times out.
func (w *Waiter) WaitForCompletion(ctx context.Context, datasetID, ingestionID string) CompletionResult {
	deadline := time.Now().Add(w.Timeout)

	for time.Now().Before(deadline) {
		status, detail, err := w.Poller.IngestionStatus(ctx, datasetID, ingestionID)
		if err != nil {
			log.Printf("[Waiter] Error checking ingestion %s status: %v", ingestionID, err)
		} else {
			switch status {
			case StatusCompleted:
				log.Printf("[Waiter] Refresh completed for %s", datasetID)
				return CompletionResult{Status: "completed", Succeeded: true}
			case StatusFailed:
				log.Printf("[Waiter] Refresh failed for %s: %s", datasetID, detail)
				return CompletionResult{Status: "failed", Detail: detail}
			case StatusCancelled:
				log.Printf("[Waiter] Refresh cancelled for %s", datasetID)
				return CompletionResult{Status: "cancelled"}
			}
		}

		if !w.sleep(ctx) {
			return CompletionResult{Status: "timeout"}
		}
	}

	log.Printf("[Waiter] Timeout waiting for refresh completion for %s", datasetID)
	return CompletionResult{Status: "timeout"}
}

// sleep pauses for one poll interval; it returns false when the context is
// cancelled first.
func (w *Waiter) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.Interval):
		return true
	}
}
