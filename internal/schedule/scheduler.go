// Package schedule wraps gocron to run a periodic full rebuild as a
// belt-and-suspenders safety net alongside the dev server's
// file-watch-triggered rebuilds. Adapted from the teacher's
// internal/daemon.Scheduler (itself a gocron wrapper around repository
// build jobs), retargeted to a single rebuild callback.
package schedule

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/aerstatic/aer/internal/logfields"
)

// Scheduler runs a rebuild function on a fixed interval.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New constructs a Scheduler. Callers must call Start to begin running
// scheduled jobs and Stop to shut it down.
func New(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("schedule: failed to create scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// EveryRebuild schedules rebuild to run every interval, logging and
// swallowing any error it returns so one failed scheduled rebuild
// doesn't stop future ones.
func (s *Scheduler) EveryRebuild(interval time.Duration, rebuild func() error) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			s.logger.Info("scheduled rebuild starting")
			if err := rebuild(); err != nil {
				s.logger.Error("scheduled rebuild failed", logfields.Error(err))
			}
		}),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return fmt.Errorf("schedule: failed to create periodic rebuild job: %w", err)
	}
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() { s.scheduler.Start() }

// Stop shuts the scheduler down, waiting for any in-flight job.
func (s *Scheduler) Stop() error { return s.scheduler.Shutdown() }
