// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	applogger "SalesPulse/pkg/logger"
)

// Job is a unit of background work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages background jobs. A run that is still going when its
// next tick fires is skipped.
type Scheduler struct {
	cron    *cron.Cron
	log     *applogger.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a scheduler evaluating schedules in loc. Each run is bounded
// by timeout.
func New(log *applogger.Logger, loc *time.Location, timeout time.Duration) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log:     log.With(applogger.String("component", "scheduler")),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", applogger.Int("jobs", len(s.cron.Entries())))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// AddJob registers job. Schedules accept six-field cron with seconds
// ("0 */10 * * * *") or descriptors ("@every 10m").
func (s *Scheduler) AddJob(schedule string, job Job) error {
	if _, err := s.cron.AddFunc(schedule, func() { _ = s.RunNow(job) }); err != nil {
		return err
	}
	s.log.Info("job registered", applogger.String("schedule", schedule), applogger.String("job", job.Name()))
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		s.log.Error("job failed",
			applogger.String("job", job.Name()),
			applogger.Duration("took_ms", time.Since(start)),
			applogger.Error(err),
		)
		return err
	}
	s.log.Debug("job completed", applogger.String("job", job.Name()), applogger.Duration("took_ms", time.Since(start)))
	return nil
}
