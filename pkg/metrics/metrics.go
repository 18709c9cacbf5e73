// Package metrics exposes the operator's Prometheus counters and
// histograms: cycles run, cycles failed by kind, bisection steps per
// cycle, prove duration, submit duration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every counter/histogram the operator loop touches.
type Metrics struct {
	CyclesTotal       prometheus.Counter
	CyclesFailedTotal *prometheus.CounterVec
	BisectionSteps    prometheus.Histogram
	ProveDuration     prometheus.Histogram
	SubmitDuration    prometheus.Histogram
}

// New registers the operator's metrics against the default Prometheus
// registry and returns a handle to record observations against.
func New() *Metrics {
	return &Metrics{
		CyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "fuelstreamx",
			Name:      "operator_cycles_total",
			Help:      "Total operator cycles attempted.",
		}),
		CyclesFailedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fuelstreamx",
			Name:      "operator_cycles_failed_total",
			Help:      "Operator cycles that failed, labeled by error kind.",
		}, []string{"kind"}),
		BisectionSteps: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fuelstreamx",
			Name:      "advancement_search_steps",
			Help:      "Number of bisection probes per advancement search call.",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}),
		ProveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fuelstreamx",
			Name:      "prove_duration_seconds",
			Help:      "Wall-clock duration of prover.Prove calls.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fuelstreamx",
			Name:      "submit_duration_seconds",
			Help:      "Wall-clock duration of commitHeaderRange submission plus confirmation wait.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// Serve starts the /metrics HTTP endpoint on addr. It blocks; callers run
// it in its own goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
