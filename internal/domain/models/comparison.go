package models

import "time"

// CellComparison compares one bucket of one channel group against its
// benchmark. PercentDiff is empty when no meaningful comparison exists.
type CellComparison struct {
	Bucket      string `json:"bucket"`
	Actual      int    `json:"actual"`
	Benchmark   int    `json:"benchmark"`
	PercentDiff string `json:"percent_diff"`
	RedFlag     bool   `json:"red_flag"`
	Started     bool   `json:"started"`
}

// GroupComparison is a row of the comparison report: a single channel or a
// combined group such as "Website".
type GroupComparison struct {
	Name     string           `json:"name"`
	Channels []string         `json:"channels"`
	Cells    []CellComparison `json:"cells"`
}

// ComparisonReport is the day-vs-benchmark view with red flags.
type ComparisonReport struct {
	Kind         string            `json:"kind"`
	Day          string            `json:"day"`
	BenchmarkDay string            `json:"benchmark_day"`
	CurrentHour  *int              `json:"current_hour,omitempty"`
	Groups       []GroupComparison `json:"groups"`
	RedFlags     int               `json:"red_flags"`
}

// RedFlagAlert is published when a bucket falls below half its benchmark.
type RedFlagAlert struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Day         string    `json:"day"`
	Group       string    `json:"group"`
	Bucket      string    `json:"bucket"`
	Actual      int       `json:"actual"`
	Benchmark   int       `json:"benchmark"`
	PercentDiff string    `json:"percent_diff"`
	RaisedAt    time.Time `json:"raised_at"`
}
