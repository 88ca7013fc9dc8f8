// Package scheduler runs the periodic model checkpoint.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/edurate/pkg/logger"
)

// ErrNoJob is returned by RunNow before a job is scheduled.
var ErrNoJob = errors.New("no job scheduled")

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// Scheduler runs one job on a cron schedule. Runs never overlap.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	entryID cron.EntryID
	job     Job
	started bool
	runMu   sync.Mutex
	timeout time.Duration
	log     logger.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithJobTimeout bounds a single run.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:    cron.New(),
		timeout: 30 * time.Second,
		log:     logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule replaces the job. spec is a standard five-field cron expression
// or a descriptor such as "@every 5m".
func (s *Scheduler) Schedule(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}
	entryID, err := s.cron.AddFunc(spec, func() { _ = s.run(context.Background()) })
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", spec, err)
	}
	s.entryID = entryID
	s.job = job
	return nil
}

// RunNow runs the job immediately, waiting for any scheduled run to finish.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) error {
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()
	if job == nil {
		return ErrNoJob
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	if err := job(ctx); err != nil {
		s.log.Error(ctx, "scheduled job failed", logger.Error(err))
		return err
	}
	s.log.Debug(ctx, "scheduled job finished", logger.Duration("took", time.Since(start)))
	return nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts the scheduler and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	done := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn(ctx, "scheduler stop timed out")
	}
}
