package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SalesPulse/internal/scheduler"
	xhttp "SalesPulse/pkg/http"
	applogger "SalesPulse/pkg/logger"
)

// ScheduledJob pairs a job with its cron schedule.
type ScheduledJob struct {
	Schedule string
	Job      scheduler.Job
	// Warm runs the job once at startup, in the background.
	Warm bool
}

// App encapsulates the entire application lifecycle.
type App struct {
	log             *applogger.Logger
	httpServer      *xhttp.Server
	scheduler       *scheduler.Scheduler
	jobs            []ScheduledJob
	closers         map[string]io.Closer
	shutdownTimeout time.Duration
}

// New creates an App. sched may be nil when background jobs are disabled.
func New(log *applogger.Logger, httpServer *xhttp.Server, sched *scheduler.Scheduler, jobs []ScheduledJob, closers map[string]io.Closer, shutdownTimeout time.Duration) *App {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &App{
		log:             log,
		httpServer:      httpServer,
		scheduler:       sched,
		jobs:            jobs,
		closers:         closers,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.startJobs(); err != nil {
		return err
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.shutdown()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	a.shutdown()
	return nil
}

func (a *App) startJobs() error {
	if a.scheduler == nil {
		return nil
	}
	for _, sj := range a.jobs {
		if err := a.scheduler.AddJob(sj.Schedule, sj.Job); err != nil {
			a.log.Error("job registration failed", applogger.String("job", sj.Job.Name()), applogger.Error(err))
			return err
		}
	}
	a.scheduler.Start()

	for _, sj := range a.jobs {
		if !sj.Warm {
			continue
		}
		go func(job scheduler.Job) {
			if err := a.scheduler.RunNow(job); err != nil {
				a.log.Warn("startup run failed", applogger.String("job", job.Name()), applogger.Error(err))
			}
		}(sj.Job)
	}
	return nil
}

// shutdown stops accepting requests first, then background jobs, then
// closes infrastructure clients.
func (a *App) shutdown() {
	a.log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	for name, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
