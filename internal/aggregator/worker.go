package aggregator

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sspzz/burn-stats/internal/logger"
)

// Worker triggers every job on start and then once per Interval.
type Worker struct {
	Runner   *Runner
	Jobs     []Job
	Interval time.Duration
	Log      *logger.Logger

	// progress
	runs     atomic.Int64
	failures atomic.Int64
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Log == nil {
		w.Log = logger.Nop()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	names := make([]string, 0, len(w.Jobs))
	for _, j := range w.Jobs {
		names = append(names, j.Name())
	}
	w.Log.Info("worker starting", "interval", interval.String(), "jobs", names)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			runs, failures := w.Stats()
			w.Log.Info("worker stopping", "runs", runs, "failures", failures)
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce triggers each job in order; a failing job does not stop the others.
func (w *Worker) RunOnce(ctx context.Context) {
	if w.Log == nil {
		w.Log = logger.Nop()
	}
	for _, j := range w.Jobs {
		if ctx.Err() != nil {
			return
		}
		w.runs.Add(1)
		res, err := w.Runner.Run(ctx, j, false)
		if err != nil {
			w.failures.Add(1)
			w.Log.Warn("job run failed", "job", j.Name(), "run_id", res.RunID, "error", err)
			continue
		}
		w.Log.Debug("job run", "job", j.Name(), "outcome", string(res.Outcome), "rows", res.Rows)
	}
}

// Stats reports trigger and failure counts since start.
func (w *Worker) Stats() (runs, failures int64) { return w.runs.Load(), w.failures.Load() }
