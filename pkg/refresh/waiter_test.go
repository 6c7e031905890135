package refresh

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type pollResult struct {
	status IngestionStatus
	detail string
	err    error
}

// fakePoller serves a scripted sequence of poll results; the last entry
// repeats once the script runs out.
type fakePoller struct {
	mu    sync.Mutex
	seq   []pollResult
	polls int
}

func (f *fakePoller) IngestionStatus(_ context.Context, _, _ string) (IngestionStatus, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.polls
	if i >= len(f.seq) {
		i = len(f.seq) - 1
	}
	f.polls++
	r := f.seq[i]
	return r.status, r.detail, r.err
}

func (f *fakePoller) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func TestWaitForStartObservesRunning(t *testing.T) {
	p := &fakePoller{seq: []pollResult{{status: StatusRunning}}}
	w := &Waiter{Poller: p, Interval: time.Millisecond, Timeout: 100 * time.Millisecond}

	if !w.WaitForStart(context.Background(), "ds", "job") {
		t.Fatalf("expected started=true for RUNNING status")
	}
	if p.pollCount() != 1 {
		t.Errorf("polled %d times, want 1", p.pollCount())
	}
}

func TestWaitForStartTreatsTerminalAsStarted(t *testing.T) {
	p := &fakePoller{seq: []pollResult{{status: StatusCompleted}}}
	w := &Waiter{Poller: p, Interval: time.Millisecond, Timeout: 100 * time.Millisecond}

	if !w.WaitForStart(context.Background(), "ds", "job") {
		t.Fatalf("expected started=true for already finished job")
	}
}

func TestWaitForStartTimesOut(t *testing.T) {
	p := &fakePoller{seq: []pollResult{{status: StatusCreated}}}
	w := &Waiter{Poller: p, Interval: 5 * time.Millisecond, Timeout: 40 * time.Millisecond}

	if w.WaitForStart(context.Background(), "ds", "job") {
		t.Fatalf("expected started=false after timeout")
	}
	if got := p.pollCount(); got < 3 || got > 20 {
		t.Errorf("polled %d times, expected repeated polling at the configured interval", got)
	}
}

func TestWaitForStartToleratesPollErrors(t *testing.T) {
	p := &fakePoller{seq: []pollResult{
		{err: fmt.Errorf("throttled")},
		{err: fmt.Errorf("throttled")},
		{status: StatusQueued},
	}}
	w := &Waiter{Poller: p, Interval: time.Millisecond, Timeout: 100 * time.Millisecond}

	if !w.WaitForStart(context.Background(), "ds", "job") {
		t.Fatalf("expected transient poll errors to be tolerated")
	}
	if p.pollCount() != 3 {
		t.Errorf("polled %d times, want 3", p.pollCount())
	}
}

func TestWaitForStartHonorsContext(t *testing.T) {
	p := &fakePoller{seq: []pollResult{{status: StatusCreated}}}
	w := &Waiter{Poller: p, Interval: 50 * time.Millisecond, Timeout: 10 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if w.WaitForStart(ctx, "ds", "job") {
		t.Fatalf("expected started=false on cancelled context")
	}
	if time.Since(start) > time.Second {
		t.Errorf("cancelled wait took too long")
	}
}

func TestWaitForCompletionTimesOutWhileRunning(t *testing.T) {
	p := &fakePoller{seq: []pollResult{{status: StatusRunning}}}
	w := &Waiter{Poller: p, Interval: 5 * time.Millisecond, Timeout: 40 * time.Millisecond}

	res := w.WaitForCompletion(context.Background(), "ds", "job")
	if res.Status != "timeout" || res.Succeeded {
		t.Fatalf("expected timeout result, got %+v", res)
	}
	if got := p.pollCount(); got < 3 {
		t.Errorf("polled %d times, expected repeated polling at the configured interval", got)
	}
}

func TestWaitForCompletionResults(t *testing.T) {
	tests := []struct {
		name          string
		poll          pollResult
		wantStatus    string
		wantSucceeded bool
		wantDetail    string
	}{
		{"completed", pollResult{status: StatusCompleted}, "completed", true, ""},
		{"failed with detail", pollResult{status: StatusFailed, detail: "SPICE capacity exceeded"}, "failed", false, "SPICE capacity exceeded"},
		{"cancelled", pollResult{status: StatusCancelled}, "cancelled", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePoller{seq: []pollResult{tt.poll}}
			w := &Waiter{Poller: p, Interval: time.Millisecond, Timeout: 100 * time.Millisecond}

			res := w.WaitForCompletion(context.Background(), "ds", "job")
			if res.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", res.Status, tt.wantStatus)
			}
			if res.Succeeded != tt.wantSucceeded {
				t.Errorf("Succeeded = %v, want %v", res.Succeeded, tt.wantSucceeded)
			}
			if res.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", res.Detail, tt.wantDetail)
			}
		})
	}
}
