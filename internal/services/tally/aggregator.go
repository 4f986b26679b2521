package tally

import (
	"time"

	"SalesPulse/internal/domain/models"
)

// Stats reports how many orders an aggregation used and skipped.
type Stats struct {
	Included int
	Skipped  int
}

type options struct {
	requireLines bool
}

// Option tunes AggregateByOrder.
type Option func(*options)

// RequireLines skips orders that carry no order lines.
func RequireLines() Option {
	return func(o *options) { o.requireLines = true }
}

// usable reports whether an order has the fields bucketing needs.
func usable(o *models.OrderRecord) bool {
	return o.SalesChannel != "" && !o.DatePlaced.IsZero()
}

// AggregateByOrder counts one per order into its channel and the bucket of
// its local placement hour. Orders missing a channel or placement date are
// skipped, never an error.
func AggregateByOrder(orders []models.OrderRecord, loc *time.Location, opts ...Option) (models.DailyAggregate, Stats) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var st Stats
	tb := models.NewTallyBuilder()
	for i := range orders {
		ord := &orders[i]
		if !usable(ord) || (o.requireLines && len(ord.Lines) == 0) {
			st.Skipped++
			continue
		}
		b, ok := models.Classify(ord.DatePlaced.In(loc).Hour())
		if !ok {
			st.Skipped++
			continue
		}
		tb.Add(ord.SalesChannel, b, 1)
		st.Included++
	}
	return models.DailyAggregate{Tally: tb.Build()}, st
}

// FlattenOrderLines emits one export row per order line of every usable
// order. Rows are not bucketed.
func FlattenOrderLines(orders []models.OrderRecord) ([]models.FlatOrderLine, Stats) {
	var st Stats
	out := make([]models.FlatOrderLine, 0, len(orders))
	for i := range orders {
		ord := &orders[i]
		if !usable(ord) {
			st.Skipped++
			continue
		}
		st.Included++
		for _, line := range ord.Lines {
			out = append(out, models.FlatOrderLine{
				OrderID:      line.OrderLineID,
				OrderStatus:  ord.OrderStatus,
				SalesChannel: ord.SalesChannel,
				DatePlaced:   ord.DatePlacedRaw,
				OrderLineSKU: line.SKU,
				OrderLineQty: line.Quantity,
			})
		}
	}
	return out, st
}
