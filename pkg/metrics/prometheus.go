package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamCalls *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	redFlags      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New registers the sales collectors on reg. A nil reg uses the default
// Prometheus registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		upstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salespulse_upstream_calls_total",
				Help: "Order source calls by action and result",
			},
			[]string{"action", "result"},
		),
		skipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salespulse_orders_skipped_total",
				Help: "Orders or lines dropped during aggregation, by reason",
			},
			[]string{"reason"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salespulse_cache_lookups_total",
				Help: "History cache lookups by key kind and result",
			},
			[]string{"kind", "result"},
		),
		redFlags: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salespulse_red_flags_total",
				Help: "Red flags raised by channel group and bucket",
			},
			[]string{"group", "bucket"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salespulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordUpstreamCall(action, result string) {
	r.upstreamCalls.WithLabelValues(action, result).Inc()
}

func (r *Recorder) RecordSkipped(reason string, n int) {
	if n <= 0 {
		return
	}
	r.skipped.WithLabelValues(reason).Add(float64(n))
}

func (r *Recorder) RecordCache(kind, result string) {
	r.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (r *Recorder) RecordRedFlag(group, bucket string) {
	r.redFlags.WithLabelValues(group, bucket).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop drops every observation.
type Nop struct{}

func (Nop) RecordUpstreamCall(string, string) {}
func (Nop) RecordSkipped(string, int)         {}
func (Nop) RecordCache(string, string)        {}
func (Nop) RecordRedFlag(string, string)      {}
func (Nop) RecordLatency(string, float64)     {}
