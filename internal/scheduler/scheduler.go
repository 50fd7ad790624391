package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the ingestion job on a cron expression in a fixed timezone.
// It holds exactly one job; scheduling is decided once at startup.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(timezone string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}, nil
}

func (s *Scheduler) Schedule(expression string, job func()) error {
	if _, err := s.cron.AddFunc(expression, job); err != nil {
		return fmt.Errorf("add cron job %q: %w", expression, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler_started", "next_run", s.Next())
}

// Stop halts scheduling. The returned context is done once any job still
// running has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next reports when the job fires next; zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
