package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/services/tally"
)

// DayAggregator is the slice of the sales use case the warm-up needs.
type DayAggregator interface {
	Today() time.Time
	WarmDay(ctx context.Context, day time.Time) error
}

// WarmupJob pre-computes today and the previous days sales aggregates so
// forecast requests find them cached.
type WarmupJob struct {
	sales DayAggregator
	days  int
}

func NewWarmupJob(sales DayAggregator, days int) *WarmupJob {
	return &WarmupJob{sales: sales, days: days}
}

func (j *WarmupJob) Name() string { return "cache_warmup" }

// Run keeps going past individual failures and reports them together.
func (j *WarmupJob) Run(ctx context.Context) error {
	today := j.sales.Today()
	var errs []error
	for i := j.days; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		day := tally.AddDays(today, -i)
		if err := j.sales.WarmDay(ctx, day); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", day.Format(tally.DayLayout), err))
		}
	}
	return errors.Join(errs...)
}

// RealtimeReporter builds the realtime comparison, raising alerts as a side
// effect.
type RealtimeReporter interface {
	Realtime(ctx context.Context) (*models.ComparisonReport, error)
}

// RedFlagJob polls the realtime comparison so alerts go out without a
// dashboard open.
type RedFlagJob struct {
	reports RealtimeReporter
}

func NewRedFlagJob(reports RealtimeReporter) *RedFlagJob {
	return &RedFlagJob{reports: reports}
}

func (j *RedFlagJob) Name() string { return "red_flag_check" }

func (j *RedFlagJob) Run(ctx context.Context) error {
	_, err := j.reports.Realtime(ctx)
	return err
}
