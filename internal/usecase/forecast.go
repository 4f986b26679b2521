package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"SalesPulse/internal/domain/models"
	dsvc "SalesPulse/internal/domain/service"
	hcache "SalesPulse/internal/service/cache"
	"SalesPulse/internal/services/tally"
	"SalesPulse/internal/services/trend"
)

// ErrInvalidDays rejects a forecast window below one day.
var ErrInvalidDays = errors.New("days must be at least 1")

// ForecastUseCase predicts today's per-bucket sales from recent history.
type ForecastUseCase struct {
	sales       *SalesUseCase
	cache       *hcache.HistoryCache
	ttl         time.Duration
	parallelism int
}

func NewForecastUseCase(sales *SalesUseCase, cache *hcache.HistoryCache, ttl time.Duration, parallelism int) *ForecastUseCase {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &ForecastUseCase{sales: sales, cache: cache, ttl: ttl, parallelism: parallelism}
}

var _ dsvc.SalesPredictor = (*ForecastUseCase)(nil)

// PredictionKey identifies a forecast by local date, hour and window.
func PredictionKey(today time.Time, hour, days int) string {
	return fmt.Sprintf("sales_prediction_%s_%02d_d%d", today.Format(tally.DayLayout), hour, days)
}

// PredictSales forecasts every channel × bucket of today. Elapsed buckets
// report today's actual count; the rest extrapolate the last days days.
// The result is memoized per local hour.
func (uc *ForecastUseCase) PredictSales(ctx context.Context, days int) (models.ForecastResult, error) {
	if days < 1 {
		return models.ForecastResult{}, ErrInvalidDays
	}
	now := uc.sales.Now()
	today := tally.StartOfDay(now, uc.sales.Location())
	hour := now.Hour()

	return hcache.GetOrCompute(ctx, uc.cache, PredictionKey(today, hour, days), uc.ttl, func(ctx context.Context) (models.ForecastResult, error) {
		history, current, err := uc.load(ctx, today, days)
		if err != nil {
			return models.ForecastResult{}, err
		}
		return trend.Forecast(history, current, hour), nil
	})
}

// load fetches today − days .. today − 1 in chronological order, plus today.
func (uc *ForecastUseCase) load(ctx context.Context, today time.Time, days int) ([]models.DailyAggregate, models.DailyAggregate, error) {
	history := make([]models.DailyAggregate, days)
	var current models.DailyAggregate

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.parallelism)
	for i := days; i >= 1; i-- {
		idx, day := days-i, tally.AddDays(today, -i)
		g.Go(func() error {
			agg, err := uc.sales.DayAggregate(gctx, day, ShapeSales)
			history[idx] = agg
			return err
		})
	}
	g.Go(func() error {
		agg, err := uc.sales.DayAggregate(gctx, today, ShapeSales)
		current = agg
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, models.DailyAggregate{}, err
	}
	return history, current, nil
}
