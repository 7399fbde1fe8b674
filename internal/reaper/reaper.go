// Package reaper removes evaluation jobs that outlived the retention window.
// The policy lives here instead of relying on a storage-engine TTL so it is
// engine-independent and testable.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// JobStore is the slice of the job store the reaper needs.
type JobStore interface {
	DeleteJobsCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// DefaultRetention is how long terminal jobs are kept before deletion.
const DefaultRetention = 7 * 24 * time.Hour

// Reaper periodically deletes jobs whose completed_date is older than the
// retention window, regardless of which terminal state they reached.
type Reaper struct {
	store     JobStore
	retention time.Duration
	logger    *slog.Logger
	cron      *cron.Cron
}

// New creates a reaper with the given retention window.
func New(s JobStore, retention time.Duration, logger *slog.Logger) *Reaper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Reaper{
		store:     s,
		retention: retention,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start schedules hourly reap runs. It returns immediately; call Stop to
// halt the schedule.
func (r *Reaper) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc("@hourly", func() {
		if err := r.RunOnce(ctx); err != nil {
			r.logger.Error("reap run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running reap to finish.
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
}

// RunOnce deletes all jobs past retention. Exposed for tests and for a
// one-shot CLI invocation.
func (r *Reaper) RunOnce(ctx context.Context) error {
	cutoff := time.Now().Add(-r.retention)

	deleted, err := r.store.DeleteJobsCompletedBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		r.logger.Info("reaped expired jobs", "deleted", deleted, "cutoff", cutoff)
	}
	return nil
}
