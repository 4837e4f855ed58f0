// Package schedule triggers homepage regeneration on a fixed interval.
package schedule

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"podcast-home/internal/logging"
)

// Job is one regeneration cycle.
type Job func(ctx context.Context) error

// Revalidator invokes a Job immediately and then once per interval. Runs are
// sequential, so a slow cycle delays the next tick instead of overlapping it.
type Revalidator struct {
	interval time.Duration
	job      Job
	logger   *logrus.Logger
}

// NewRevalidator returns a Revalidator for job.
func NewRevalidator(interval time.Duration, job Job, logger *logrus.Logger) *Revalidator {
	return &Revalidator{
		interval: interval,
		job:      job,
		logger:   logging.OrDefault(logger),
	}
}

// Run blocks until ctx is cancelled.
func (r *Revalidator) Run(ctx context.Context) {
	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Revalidator) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := r.job(ctx); err != nil {
		r.logger.WithError(err).WithField("retry_in", r.interval.String()).Error("revalidation failed")
	}
}
