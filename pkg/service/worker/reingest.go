package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/secmon-lab/darbolex/pkg/utils/async"
	"github.com/secmon-lab/darbolex/pkg/utils/errutil"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
)

// Job is one incremental ingestion of the corpus
type Job func(ctx context.Context) error

// ReingestWorker re-runs ingestion periodically and on demand. At most one run is active at
// a time; a tick or trigger that arrives during a run is dropped.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
type ReingestWorker struct {
	job      Job
	interval time.Duration
	running  atomic.Bool
	inflight sync.WaitGroup
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReingestWorker creates a worker. An interval of zero or less disables periodic runs;
// Trigger still works.
func NewReingestWorker(job Job, interval time.Duration) *ReingestWorker {
	return &ReingestWorker{
		job:      job,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the periodic loop in the background
func (w *ReingestWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		close(w.doneCh)
		return
	}

	logging.Default().Info("Reingest worker starting", "interval", w.interval.String())
	go w.run(ctx)
}

// Stop signals the loop to stop and waits for it and for any triggered run
func (w *ReingestWorker) Stop() {
	logging.Default().Info("Reingest worker stopping")
	close(w.stopCh)
	<-w.doneCh
	w.inflight.Wait()
	logging.Default().Info("Reingest worker stopped")
}

// Trigger starts a run in the background. It returns false when a run is already active.
func (w *ReingestWorker) Trigger(ctx context.Context) bool {
	if !w.running.CompareAndSwap(false, true) {
		return false
	}

	w.inflight.Add(1)
	async.Dispatch(ctx, "reingest", func(ctx context.Context) error {
		defer w.inflight.Done()
		defer w.running.Store(false)
		return w.job(ctx)
	})
	return true
}

// Running reports whether a run is active
func (w *ReingestWorker) Running() bool {
	return w.running.Load()
}

func (w *ReingestWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Reingest worker context cancelled")
			return
		}
	}
}

func (w *ReingestWorker) tick(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		logging.Default().Info("Reingest skipped, previous run still active")
		return
	}
	defer w.running.Store(false)

	start := time.Now()
	if err := w.job(ctx); err != nil {
		// Keep the loop alive; the next tick retries
		_ = errutil.Handle(ctx, err, "Periodic reingest failed")
		return
	}
	logging.Default().Info("Periodic reingest completed", "duration", time.Since(start).String())
}
