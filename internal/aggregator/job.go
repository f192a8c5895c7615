package aggregator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sspzz/burn-stats/internal/cache"
	"github.com/sspzz/burn-stats/internal/logger"
	"github.com/sspzz/burn-stats/internal/metrics"
	"github.com/sspzz/burn-stats/internal/models"
	"github.com/sspzz/burn-stats/internal/store"
)

// Job computes one dataset from the upstream API.
type Job interface {
	Name() string
	Key() store.Key
	Compute(ctx context.Context, log *logger.Logger) (models.Dataset, error)
}

type Outcome string

const (
	OutcomeFresh   Outcome = "fresh"
	OutcomeUpdated Outcome = "success"
	OutcomeFailed  Outcome = "error"
)

type Result struct {
	RunID       string
	Job         string
	Outcome     Outcome
	LastUpdated time.Time
	Rows        int
}

// Message is the trigger response text for the outcome.
func (r Result) Message() string {
	if r.Outcome == OutcomeFresh {
		return "Data is still fresh"
	}
	return "success"
}

// Runner puts jobs behind the freshness gate: a trigger inside the window
// returns without touching the upstream API, otherwise the job recomputes and
// the result is stamped with the trigger time.
type Runner struct {
	Gate    *cache.Gate
	Log     *logger.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run triggers job. force skips the freshness check.
func (r *Runner) Run(ctx context.Context, job Job, force bool) (Result, error) {
	started := time.Now()
	triggered := r.now()
	res := Result{RunID: uuid.NewString(), Job: job.Name()}
	base := r.Log
	if base == nil {
		base = logger.Nop()
	}
	log := base.With("job", job.Name(), "run_id", res.RunID)

	if !force {
		st := r.Gate.Check(ctx, job.Key(), triggered)
		if st.Fresh {
			log.Info("Data is still fresh", "age", st.Age.Truncate(time.Second).String())
			res.Outcome = OutcomeFresh
			res.LastUpdated = st.LastUpdated
			r.Metrics.ObserveJob(job.Name(), string(res.Outcome), time.Since(started))
			return res, nil
		}
	}

	ds, err := job.Compute(ctx, log)
	if err == nil {
		err = r.Gate.Save(ctx, job.Key(), ds, triggered)
	}
	if err != nil {
		log.Error("job failed", "error", err, "elapsed", time.Since(started).String())
		res.Outcome = OutcomeFailed
		r.Metrics.ObserveJob(job.Name(), string(res.Outcome), time.Since(started))
		return res, err
	}

	res.Outcome = OutcomeUpdated
	res.LastUpdated = time.UnixMilli(triggered.UnixMilli()).UTC()
	res.Rows = ds.Len()
	r.Metrics.ObserveJob(job.Name(), string(res.Outcome), time.Since(started))
	r.Metrics.SetRows(job.Key().Name, res.Rows)
	log.Info("Uploaded data successfully", "rows", res.Rows, "elapsed", time.Since(started).String())
	return res, nil
}
