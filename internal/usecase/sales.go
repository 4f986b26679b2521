package usecase

import (
	"context"
	"fmt"
	"time"

	"SalesPulse/internal/domain/models"
	drepo "SalesPulse/internal/domain/repository"
	dsvc "SalesPulse/internal/domain/service"
	hcache "SalesPulse/internal/service/cache"
	"SalesPulse/internal/services/tally"
	pkgcache "SalesPulse/pkg/cache"
	applogger "SalesPulse/pkg/logger"
)

// Shape is one of the order query shapes the dashboard asks for. Each has
// its own output selector, cache key and TTL.
type Shape int

const (
	// ShapeSales counts orders that carry lines; used for today and the
	// forecast history.
	ShapeSales Shape = iota
	// ShapeSummary counts every order with a channel and date; used for
	// yesterday and last week.
	ShapeSummary
	// ShapeRaw feeds the flattened order-line export.
	ShapeRaw
)

func (s Shape) String() string {
	switch s {
	case ShapeSales:
		return "sales"
	case ShapeSummary:
		return "summary"
	case ShapeRaw:
		return "raw"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

func (s Shape) fields() []string {
	switch s {
	case ShapeSales:
		return []string{models.FieldOrderID, models.FieldSalesChannel, models.FieldDatePlaced, models.FieldOrderLine}
	case ShapeSummary:
		return []string{models.FieldOrderID, models.FieldSalesChannel, models.FieldDatePlaced}
	default:
		return []string{models.FieldOrderID, models.FieldOrderStatus, models.FieldSalesChannel, models.FieldDatePlaced, models.FieldOrderLine}
	}
}

// Key returns the cache key for day under this shape.
func (s Shape) Key(day time.Time) string {
	d := day.Format(tally.DayLayout)
	switch s {
	case ShapeSales:
		return pkgcache.GenerateKey("sales", d)
	case ShapeSummary:
		return pkgcache.GenerateKey("sales", d, "raw")
	default:
		return pkgcache.GenerateKey("data", d, "raw")
	}
}

// SalesConfig carries the reference timezone, channel filter and TTLs.
type SalesConfig struct {
	Location   *time.Location
	Channels   []string
	SalesTTL   time.Duration
	SummaryTTL time.Duration
	RawTTL     time.Duration
}

func (c SalesConfig) ttl(s Shape) time.Duration {
	switch s {
	case ShapeSales:
		return c.SalesTTL
	case ShapeSummary:
		return c.SummaryTTL
	default:
		return c.RawTTL
	}
}

// SalesUseCase answers the day-level sales queries.
type SalesUseCase struct {
	source  drepo.OrderSource
	cache   *hcache.HistoryCache
	cfg     SalesConfig
	now     func() time.Time
	log     *applogger.Logger
	metrics drepo.Metrics
}

// SalesOption configures SalesUseCase.
type SalesOption func(*SalesUseCase)

// WithClock overrides the time source.
func WithClock(now func() time.Time) SalesOption {
	return func(uc *SalesUseCase) { uc.now = now }
}

func NewSalesUseCase(source drepo.OrderSource, cache *hcache.HistoryCache, cfg SalesConfig, log *applogger.Logger, metrics drepo.Metrics, opts ...SalesOption) *SalesUseCase {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if log == nil {
		log = applogger.Nop()
	}
	uc := &SalesUseCase{
		source:  source,
		cache:   cache,
		cfg:     cfg,
		now:     time.Now,
		log:     log.With(applogger.String("component", "sales")),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

var _ dsvc.SalesQueries = (*SalesUseCase)(nil)

// Location is the reference timezone.
func (uc *SalesUseCase) Location() *time.Location { return uc.cfg.Location }

// Now is the current instant in the reference timezone.
func (uc *SalesUseCase) Now() time.Time { return uc.now().In(uc.cfg.Location) }

// Today is local midnight of the current calendar day.
func (uc *SalesUseCase) Today() time.Time { return tally.Today(uc.now(), uc.cfg.Location) }

func (uc *SalesUseCase) dayOr(date *time.Time, fallback int) time.Time {
	if date != nil {
		return tally.StartOfDay(*date, uc.cfg.Location)
	}
	return tally.AddDays(uc.Today(), fallback)
}

func (uc *SalesUseCase) fetch(ctx context.Context, day time.Time, shape Shape) ([]models.OrderRecord, error) {
	from, to := tally.BusinessDay(day, uc.cfg.Location)
	orders, err := uc.source.FetchOrders(ctx, models.OrderQuery{
		From:     from.UTC(),
		To:       to.UTC(),
		Channels: uc.cfg.Channels,
		Fields:   shape.fields(),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s orders for %s: %w", shape, day.Format(tally.DayLayout), err)
	}
	return orders, nil
}

func (uc *SalesUseCase) reportSkipped(day time.Time, shape Shape, st tally.Stats) {
	if st.Skipped == 0 {
		return
	}
	uc.log.Warn("orders skipped",
		applogger.String("day", day.Format(tally.DayLayout)),
		applogger.String("shape", shape.String()),
		applogger.Int("skipped", st.Skipped),
		applogger.Int("included", st.Included),
	)
	if uc.metrics != nil {
		uc.metrics.RecordSkipped(shape.String(), st.Skipped)
	}
}

// DayAggregate returns the bucketed tally for one business day, memoized
// per shape. ShapeRaw is not aggregated; use GetRawOrders.
func (uc *SalesUseCase) DayAggregate(ctx context.Context, day time.Time, shape Shape) (models.DailyAggregate, error) {
	if shape == ShapeRaw {
		return models.DailyAggregate{}, fmt.Errorf("shape %s has no aggregate", shape)
	}
	day = tally.StartOfDay(day, uc.cfg.Location)
	return hcache.GetOrCompute(ctx, uc.cache, shape.Key(day), uc.cfg.ttl(shape), func(ctx context.Context) (models.DailyAggregate, error) {
		orders, err := uc.fetch(ctx, day, shape)
		if err != nil {
			return models.DailyAggregate{}, err
		}
		var opts []tally.Option
		if shape == ShapeSales {
			opts = append(opts, tally.RequireLines())
		}
		agg, st := tally.AggregateByOrder(orders, uc.cfg.Location, opts...)
		uc.reportSkipped(day, shape, st)
		return agg, nil
	})
}

func (uc *SalesUseCase) FetchTodaySales(ctx context.Context) (models.DailyAggregate, error) {
	return uc.DayAggregate(ctx, uc.Today(), ShapeSales)
}

// FetchSameWeekdayLastWeekSales is today's benchmark: today − 7.
func (uc *SalesUseCase) FetchSameWeekdayLastWeekSales(ctx context.Context) (models.DailyAggregate, error) {
	return uc.DayAggregate(ctx, tally.AddDays(uc.Today(), -7), ShapeSales)
}

// FetchYesterdaySales aggregates date, or yesterday when date is nil.
func (uc *SalesUseCase) FetchYesterdaySales(ctx context.Context, date *time.Time) (models.DailyAggregate, error) {
	return uc.DayAggregate(ctx, uc.dayOr(date, -1), ShapeSummary)
}

// FetchLastWeekSales aggregates the same weekday a week before date, or
// today − 8 (a week before yesterday) when date is nil.
func (uc *SalesUseCase) FetchLastWeekSales(ctx context.Context, date *time.Time) (models.DailyAggregate, error) {
	if date != nil {
		return uc.DayAggregate(ctx, tally.AddDays(tally.StartOfDay(*date, uc.cfg.Location), -7), ShapeSummary)
	}
	return uc.DayAggregate(ctx, tally.AddDays(uc.Today(), -8), ShapeSummary)
}

// GetRawOrders flattens every order line of date, or today when nil.
func (uc *SalesUseCase) GetRawOrders(ctx context.Context, date *time.Time) ([]models.FlatOrderLine, error) {
	day := uc.dayOr(date, 0)
	return hcache.GetOrCompute(ctx, uc.cache, ShapeRaw.Key(day), uc.cfg.RawTTL, func(ctx context.Context) ([]models.FlatOrderLine, error) {
		orders, err := uc.fetch(ctx, day, ShapeRaw)
		if err != nil {
			return nil, err
		}
		rows, st := tally.FlattenOrderLines(orders)
		uc.reportSkipped(day, ShapeRaw, st)
		return rows, nil
	})
}

// WarmDay loads the sales aggregate of day into the cache. Today's entries
// are dropped first so orders placed since the last load are picked up.
func (uc *SalesUseCase) WarmDay(ctx context.Context, day time.Time) error {
	day = tally.StartOfDay(day, uc.cfg.Location)
	if day.Equal(uc.Today()) {
		if err := uc.cache.Invalidate(ctx, ShapeSales.Key(day)); err != nil {
			uc.log.Warn("invalidate today failed", applogger.String("day", day.Format(tally.DayLayout)), applogger.Error(err))
		}
	}
	_, err := uc.DayAggregate(ctx, day, ShapeSales)
	return err
}
