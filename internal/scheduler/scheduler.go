// Package scheduler runs periodic maintenance on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/log"
	"fintrack/internal/metrics"
)

const jobTimeout = time.Minute

// Purger deletes expired records and reports how many were removed.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Job is one cleanup task, labelled by the kind of record it removes.
type Job struct {
	Kind   string
	Purger Purger
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New parses schedule (standard five-field cron or a descriptor such as
// @hourly) and registers the cleanup jobs to run together on it.
func New(schedule string, m *metrics.Metrics, logger *slog.Logger, jobs ...Job) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:    cron.New(),
		jobs:    jobs,
		metrics: m,
		logger:  logger.With(log.FieldComponent, log.ComponentScheduler),
	}

	// Cron jobs get a fresh context per tick.
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce runs every job immediately. A failing job is logged and does not
// stop the others. It returns the total number of purged records.
func (s *Scheduler) RunOnce(ctx context.Context) int64 {
	var total int64
	for _, job := range s.jobs {
		n, err := job.Purger.PurgeExpired(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "Cleanup job failed",
				log.FieldOperation, log.OpPurge,
				"kind", job.Kind,
				log.FieldError, err)
			continue
		}
		s.metrics.Purged(job.Kind, n)
		total += n
		if n > 0 {
			s.logger.InfoContext(ctx, "Purged expired records", "kind", job.Kind, "count", n)
		}
	}
	return total
}

// Run starts the cron loop and blocks until ctx is cancelled, then waits
// for a running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.jobs))

	<-ctx.Done()

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(jobTimeout):
		s.logger.Warn("Timed out waiting for cleanup job to finish")
	}
	s.logger.Info("Scheduler stopped")
	return nil
}
