package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"SalesPulse/internal/domain/models"
	drepo "SalesPulse/internal/domain/repository"
	dsvc "SalesPulse/internal/domain/service"
	"SalesPulse/internal/services/benchmark"
	"SalesPulse/internal/services/tally"
	pkgcache "SalesPulse/pkg/cache"
	applogger "SalesPulse/pkg/logger"
)

const (
	KindRealtime  = "realtime"
	KindHypercare = "hypercare"
)

// ComparisonUseCase builds day-vs-benchmark reports and raises red-flag
// alerts for buckets that fell below half their benchmark.
type ComparisonUseCase struct {
	sales     *SalesUseCase
	publisher drepo.AlertPublisher
	locks     pkgcache.Service
	dedupTTL  time.Duration
	groups    []benchmark.Group
	log       *applogger.Logger
	metrics   drepo.Metrics
}

// NewComparisonUseCase wires the report builder. A nil publisher disables
// alert publishing; reports still carry red flags.
func NewComparisonUseCase(sales *SalesUseCase, publisher drepo.AlertPublisher, locks pkgcache.Service, dedupTTL time.Duration, log *applogger.Logger, metrics drepo.Metrics) *ComparisonUseCase {
	if dedupTTL <= 0 {
		dedupTTL = 24 * time.Hour
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &ComparisonUseCase{
		sales:     sales,
		publisher: publisher,
		locks:     locks,
		dedupTTL:  dedupTTL,
		groups:    []benchmark.Group{benchmark.WebsiteGroup},
		log:       log.With(applogger.String("component", "comparison")),
		metrics:   metrics,
	}
}

var _ dsvc.SalesComparer = (*ComparisonUseCase)(nil)

// Realtime compares today so far with the same weekday last week. Buckets
// that have not opened yet carry no diff; only fully elapsed buckets can be
// flagged, so alerts never fire on a bucket still in progress.
func (uc *ComparisonUseCase) Realtime(ctx context.Context) (*models.ComparisonReport, error) {
	now := uc.sales.Now()
	today := tally.StartOfDay(now, uc.sales.Location())
	hour := now.Hour()

	var actual, bench models.DailyAggregate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		actual, err = uc.sales.FetchTodaySales(gctx)
		return err
	})
	g.Go(func() (err error) {
		bench, err = uc.sales.FetchSameWeekdayLastWeekSales(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := uc.build(KindRealtime, today, tally.AddDays(today, -7), actual, bench, &hour)
	uc.raise(ctx, report)
	return report, nil
}

// Hypercare reviews a full past day, yesterday by default, against the same
// weekday a week earlier.
func (uc *ComparisonUseCase) Hypercare(ctx context.Context, date *time.Time) (*models.ComparisonReport, error) {
	day := tally.AddDays(uc.sales.Today(), -1)
	if date != nil {
		day = tally.StartOfDay(*date, uc.sales.Location())
	}

	var actual, bench models.DailyAggregate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		actual, err = uc.sales.FetchYesterdaySales(gctx, &day)
		return err
	})
	g.Go(func() (err error) {
		bench, err = uc.sales.FetchLastWeekSales(gctx, &day)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := uc.build(KindHypercare, day, tally.AddDays(day, -7), actual, bench, nil)
	uc.raise(ctx, report)
	return report, nil
}

func (uc *ComparisonUseCase) build(kind string, day, benchDay time.Time, actual, bench models.DailyAggregate, hour *int) *models.ComparisonReport {
	groups := benchmark.Compare(actual.Tally, bench.Tally, benchmark.Options{CurrentHour: hour, Groups: uc.groups})
	flags := 0
	for _, g := range groups {
		for _, c := range g.Cells {
			if c.RedFlag {
				flags++
			}
		}
	}
	return &models.ComparisonReport{
		Kind:         kind,
		Day:          day.Format(tally.DayLayout),
		BenchmarkDay: benchDay.Format(tally.DayLayout),
		CurrentHour:  hour,
		Groups:       groups,
		RedFlags:     flags,
	}
}

func alertKey(a models.RedFlagAlert) string {
	return fmt.Sprintf("redflag:%s:%s:%s:%s", a.Kind, a.Day, a.Group, a.Bucket)
}

// raise publishes each red flag once per (kind, day, group, bucket).
// Failures are logged; the report is returned regardless.
func (uc *ComparisonUseCase) raise(ctx context.Context, report *models.ComparisonReport) {
	if report.RedFlags == 0 {
		return
	}
	now := uc.sales.Now()

	var fresh []models.RedFlagAlert
	var keys []string
	for _, g := range report.Groups {
		for _, c := range g.Cells {
			if !c.RedFlag {
				continue
			}
			alert := models.RedFlagAlert{
				ID:          uuid.NewString(),
				Kind:        report.Kind,
				Day:         report.Day,
				Group:       g.Name,
				Bucket:      c.Bucket,
				Actual:      c.Actual,
				Benchmark:   c.Benchmark,
				PercentDiff: c.PercentDiff,
				RaisedAt:    now,
			}
			key := alertKey(alert)
			if uc.locks != nil {
				ok, err := uc.locks.TryLock(ctx, key, uc.dedupTTL)
				if err != nil {
					uc.log.Warn("red flag dedup failed", applogger.String("key", key), applogger.Error(err))
					continue
				}
				if !ok {
					continue
				}
			}
			if uc.metrics != nil {
				uc.metrics.RecordRedFlag(alert.Group, alert.Bucket)
			}
			fresh = append(fresh, alert)
			keys = append(keys, key)
		}
	}
	if len(fresh) == 0 || uc.publisher == nil {
		return
	}

	if err := uc.publisher.PublishRedFlags(ctx, fresh); err != nil {
		uc.log.Error("publish red flags failed", applogger.Int("alerts", len(fresh)), applogger.Error(err))
		// release so the next poll retries, even if the caller has gone
		if uc.locks != nil {
			if err := uc.locks.Delete(context.WithoutCancel(ctx), keys...); err != nil {
				uc.log.Warn("red flag dedup release failed", applogger.Strings("keys", keys), applogger.Error(err))
			}
		}
		return
	}
	uc.log.Info("red flags published",
		applogger.String("kind", report.Kind),
		applogger.String("day", report.Day),
		applogger.Int("alerts", len(fresh)),
	)
}
