// Package metrics exports bootstrap statistics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "termstructure"

// BootstrapRecorder implements curve.Recorder.
type BootstrapRecorder struct {
	runs        *prometheus.CounterVec
	passes      *prometheus.HistogramVec
	evaluations *prometheus.HistogramVec
	duration    *prometheus.HistogramVec
}

// NewBootstrapRecorder creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewBootstrapRecorder(reg prometheus.Registerer) *BootstrapRecorder {
	r := &BootstrapRecorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "runs_total",
			Help:      "Curve bootstraps by outcome.",
		}, []string{"curve", "result"}),
		passes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "passes",
			Help:      "Passes over the pillars per bootstrap.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		}, []string{"curve"}),
		evaluations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "evaluations",
			Help:      "Objective evaluations per bootstrap.",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
		}, []string{"curve"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "duration_seconds",
			Help:      "Wall time per bootstrap.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"curve"}),
	}
	if reg != nil {
		reg.MustRegister(r.runs, r.passes, r.evaluations, r.duration)
	}
	return r
}

// ObserveBootstrap records one bootstrap run.
func (r *BootstrapRecorder) ObserveBootstrap(curve string, passes, evaluations int, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.runs.WithLabelValues(curve, result).Inc()
	r.passes.WithLabelValues(curve).Observe(float64(passes))
	r.evaluations.WithLabelValues(curve).Observe(float64(evaluations))
	r.duration.WithLabelValues(curve).Observe(elapsed.Seconds())
}
