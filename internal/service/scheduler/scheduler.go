// Package scheduler runs periodic memo and session maintenance.
package scheduler

import (
	"context"
	"fmt"
	"time"

	applogger "StockCast/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Maintainer is the maintenance surface of the dashboard pipeline.
type Maintainer interface {
	Invalidate(ctx context.Context, fn string) error
	SweepSessions(ctx context.Context) int
}

// Scheduler manages the maintenance cron tasks.
type Scheduler struct {
	cron    *cron.Cron
	target  Maintainer
	log     *applogger.Logger
	timeout time.Duration
}

// New creates a scheduler with second-resolution cron specs.
func New(target Maintainer, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		target:  target,
		log:     l,
		timeout: 30 * time.Second,
	}
}

// Register adds the memo purge for fn on invalidateSpec and the session sweep on sweepSpec.
// An empty spec disables that task.
func (s *Scheduler) Register(fn, invalidateSpec, sweepSpec string) error {
	if invalidateSpec != "" {
		if _, err := s.cron.AddFunc(invalidateSpec, func() { s.Invalidate(fn) }); err != nil {
			return fmt.Errorf("register memo invalidation %q: %w", invalidateSpec, err)
		}
	}
	if sweepSpec != "" {
		if _, err := s.cron.AddFunc(sweepSpec, s.Sweep); err != nil {
			return fmt.Errorf("register session sweep %q: %w", sweepSpec, err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", applogger.Int("tasks", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Invalidate drops the fn memo namespace now.
func (s *Scheduler) Invalidate(fn string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.target.Invalidate(ctx, fn); err != nil {
		s.log.Error("scheduled memo invalidation failed", applogger.String("fn", fn), applogger.Error(err))
		return
	}
	s.log.Info("scheduled memo invalidation", applogger.String("fn", fn))
}

// Sweep drops idle sessions now.
func (s *Scheduler) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if n := s.target.SweepSessions(ctx); n > 0 {
		s.log.Info("idle sessions dropped", applogger.Int("count", n))
	}
}
