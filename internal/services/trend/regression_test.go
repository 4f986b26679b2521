package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SalesPulse/internal/domain/models"
)

func TestFit(t *testing.T) {
	intercept, slope := Fit([]float64{10, 12, 11, 13, 12, 14, 13})
	assert.InDelta(t, 0.5, slope, 1e-9)
	assert.InDelta(t, 10.142857, intercept, 1e-6)

	intercept, slope = Fit([]float64{4})
	assert.Equal(t, 4.0, intercept)
	assert.Equal(t, 0.0, slope)

	intercept, slope = Fit(nil)
	assert.Zero(t, intercept)
	assert.Zero(t, slope)
}

func TestPredict(t *testing.T) {
	cases := []struct {
		name   string
		counts []int
		want   int
	}{
		{"no history", nil, 0},
		{"single sample", []int{9}, 0},
		{"flat", []int{5, 5, 5, 5}, 5},
		{"linear", []int{1, 2, 3, 4}, 5},
		{"example week", []int{10, 12, 11, 13, 12, 14, 13}, 14},
		{"steady climb", []int{2, 4, 6}, 8},
		{"decline clamps to zero", []int{9, 5, 1}, 0},
		{"short decline clamps to zero", []int{5, 3, 1}, 0},
		{"two points", []int{2, 4}, 6},
		{"rounds half away", []int{0, 1, 1, 2}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Predict(tc.counts))
		})
	}
}

func TestPredict_NeverNegative(t *testing.T) {
	for start := 0; start < 30; start += 3 {
		counts := []int{start + 20, start + 10, start}
		assert.GreaterOrEqual(t, Predict(counts), 0)
	}
}

func TestForecast(t *testing.T) {
	var history []models.DailyAggregate
	for _, n := range []int{10, 12, 11, 13, 12, 14, 13} {
		tb := models.NewTallyBuilder().Set("Edisons", models.BucketEvening, n)
		history = append(history, models.DailyAggregate{Tally: tb.Build()})
	}
	today := models.DailyAggregate{Tally: models.NewTallyBuilder().
		Set("Edisons", models.BucketAfternoon, 8).
		Set("Edisons", models.BucketEvening, 2).
		Set("Mytopia", models.BucketMorning, 3).
		Build()}

	got := Forecast(history, today, 18)

	assert.Equal(t, 8, got.Count("Edisons", models.BucketAfternoon))
	assert.Equal(t, 14, got.Count("Edisons", models.BucketEvening), "future bucket ignores the partial count")
	assert.Equal(t, 0, got.Count("Edisons", models.BucketLate), "wrap bucket reads as elapsed before midnight")
	assert.Equal(t, 3, got.Count("Mytopia", models.BucketMorning))

	for _, ch := range []string{"Edisons", "Mytopia"} {
		for _, b := range models.Buckets() {
			_, ok := got.Lookup(ch, b)
			assert.True(t, ok, "%s %s present", ch, b)
		}
	}
}

func TestSamples_SkipsAbsentDays(t *testing.T) {
	history := []models.DailyAggregate{
		{Tally: models.NewTallyBuilder().Set("eBay", models.BucketEarly, 3).Build()},
		{Tally: models.NewTallyBuilder().Touch("eBay").Build()},
		{Tally: models.NewTallyBuilder().Set("eBay", models.BucketEarly, 0).Build()},
	}
	s := Samples(history)
	assert.Equal(t, []int{3, 0}, s["eBay"][models.BucketEarly])
	assert.Empty(t, s["eBay"][models.BucketLate])
}
