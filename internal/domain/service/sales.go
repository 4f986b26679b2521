package service

import (
	"context"
	"time"

	"SalesPulse/internal/domain/models"
)

// SalesQueries serves day aggregates and raw order lines.
type SalesQueries interface {
	FetchTodaySales(ctx context.Context) (models.DailyAggregate, error)
	FetchSameWeekdayLastWeekSales(ctx context.Context) (models.DailyAggregate, error)
	FetchYesterdaySales(ctx context.Context, date *time.Time) (models.DailyAggregate, error)
	FetchLastWeekSales(ctx context.Context, date *time.Time) (models.DailyAggregate, error)
	GetRawOrders(ctx context.Context, date *time.Time) ([]models.FlatOrderLine, error)
}

// SalesPredictor forecasts today's per-bucket sales.
type SalesPredictor interface {
	PredictSales(ctx context.Context, days int) (models.ForecastResult, error)
}

// SalesComparer builds benchmark comparison reports.
type SalesComparer interface {
	Realtime(ctx context.Context) (*models.ComparisonReport, error)
	Hypercare(ctx context.Context, date *time.Time) (*models.ComparisonReport, error)
}
