package trend

import "SalesPulse/internal/domain/models"

// Samples collects, per channel and bucket, the counts recorded across
// history in chronological order. Days without a recorded cell contribute
// no sample.
func Samples(history []models.DailyAggregate) map[string][models.BucketCount][]int {
	out := make(map[string][models.BucketCount][]int)
	for _, day := range history {
		for _, ch := range day.Channels() {
			row := out[ch]
			for _, b := range models.Buckets() {
				if n, ok := day.Lookup(ch, b); ok {
					row[b] = append(row[b], n)
				}
			}
			out[ch] = row
		}
	}
	return out
}

// Forecast predicts every bucket of today for every channel seen in history
// or today. Buckets that are not future at currentHour report today's actual
// count; future buckets are extrapolated from history.
func Forecast(history []models.DailyAggregate, today models.DailyAggregate, currentHour int) models.ForecastResult {
	samples := Samples(history)

	channels := make(map[string]struct{}, len(samples))
	for ch := range samples {
		channels[ch] = struct{}{}
	}
	for _, ch := range today.Channels() {
		channels[ch] = struct{}{}
	}

	tb := models.NewTallyBuilder()
	for ch := range channels {
		row := samples[ch]
		for _, b := range models.Buckets() {
			if !models.IsFutureBucket(b, currentHour) {
				tb.Set(ch, b, today.Count(ch, b))
				continue
			}
			tb.Set(ch, b, Predict(row[b]))
		}
	}
	return models.ForecastResult{Tally: tb.Build()}
}
