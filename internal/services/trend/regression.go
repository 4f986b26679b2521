package trend

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MinSamples is the fewest observations a trend is fitted to.
const MinSamples = 2

// Fit runs ordinary least squares over ys at x = 1..n and returns the
// intercept and slope. The slope is 0 when the x values have no spread.
func Fit(ys []float64) (intercept, slope float64) {
	n := len(ys)
	if n == 0 {
		return 0, 0
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	// a single point has NaN sample variance
	if v := stat.Variance(xs, nil); v == 0 || math.IsNaN(v) {
		return stat.Mean(ys, nil), 0
	}
	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	return intercept, slope
}

// Predict extrapolates the next observation (x = n+1) from counts observed
// at x = 1..n. Fewer than MinSamples observations predict 0. Negative
// predictions clamp to 0; the result is rounded half away from zero.
func Predict(counts []int) int {
	n := len(counts)
	if n < MinSamples {
		return 0
	}
	ys := make([]float64, n)
	for i, c := range counts {
		ys[i] = float64(c)
	}
	intercept, slope := Fit(ys)
	p := slope*float64(n+1) + intercept
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	return int(math.Round(p))
}
