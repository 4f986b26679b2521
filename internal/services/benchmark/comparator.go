package benchmark

import (
	"github.com/shopspring/decimal"

	"SalesPulse/internal/domain/models"
)

var (
	maxDiff = decimal.RequireFromString("999.99")
	minDiff = maxDiff.Neg()
	hundred = decimal.NewFromInt(100)
)

// PercentDiff formats (actual-benchmark)/benchmark as a percentage with two
// decimals, clamped to ±999.99. With a zero benchmark it returns "0.00%"
// when actual is also zero and "" otherwise: there is nothing to compare.
func PercentDiff(actual, benchmark int) string {
	if benchmark == 0 {
		if actual == 0 {
			return "0.00%"
		}
		return ""
	}
	diff := decimal.NewFromInt(int64(actual - benchmark)).
		Mul(hundred).
		DivRound(decimal.NewFromInt(int64(benchmark)), 8)
	if diff.GreaterThan(maxDiff) {
		diff = maxDiff
	} else if diff.LessThan(minDiff) {
		diff = minDiff
	}
	return diff.StringFixed(2) + "%"
}

// IsBelowHalf is the red-flag predicate: actual is strictly below half of a
// positive benchmark.
func IsBelowHalf(actual, benchmark int) bool {
	return benchmark > 0 && 2*actual < benchmark
}

// Group names a set of channels compared as one row.
type Group struct {
	Name     string
	Channels []string
}

// WebsiteGroup combines the two storefront channels.
var WebsiteGroup = Group{Name: "Website", Channels: []string{"Edisons", "Mytopia"}}

// Options tunes Compare.
type Options struct {
	// CurrentHour, when set, leaves buckets that have not started yet
	// without a diff, and flags only buckets that have fully elapsed.
	CurrentHour *int
	// Groups are emitted before the per-channel rows.
	Groups []Group
}

// Compare builds one row per group and one per channel present in either
// tally, each with a cell per bucket.
func Compare(actual, bench models.Tally, opts Options) []models.GroupComparison {
	var out []models.GroupComparison
	for _, g := range opts.Groups {
		out = append(out, compareGroup(g, actual, bench, opts))
	}

	seen := make(map[string]struct{})
	channels := append(actual.Channels(), bench.Channels()...)
	models.SortChannels(channels)
	for _, ch := range channels {
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, compareGroup(Group{Name: ch, Channels: []string{ch}}, actual, bench, opts))
	}
	return out
}

func compareGroup(g Group, actual, bench models.Tally, opts Options) models.GroupComparison {
	row := models.GroupComparison{
		Name:     g.Name,
		Channels: g.Channels,
		Cells:    make([]models.CellComparison, 0, models.BucketCount),
	}
	for _, b := range models.Buckets() {
		var a, bm int
		for _, ch := range g.Channels {
			a += actual.Count(ch, b)
			bm += bench.Count(ch, b)
		}
		cell := models.CellComparison{
			Bucket:    b.Label(),
			Actual:    a,
			Benchmark: bm,
			Started:   opts.CurrentHour == nil || models.HasStarted(b, *opts.CurrentHour),
		}
		if cell.Started {
			cell.PercentDiff = PercentDiff(a, bm)
		}
		if opts.CurrentHour == nil || models.HasElapsed(b, *opts.CurrentHour) {
			cell.RedFlag = IsBelowHalf(a, bm)
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}
