package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	inference   prometheus.Histogram
}

// newMetrics registers the service collectors. A nil registerer keeps the
// collectors unregistered.
func newMetrics(registerer prometheus.Registerer) *metrics {
	factory := promauto.With(registerer)
	return &metrics{
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lesionscan",
			Name:      "predictions_total",
			Help:      "Stored predictions by result label.",
		}, []string{"result"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lesionscan",
			Name:      "prediction_failures_total",
			Help:      "Failed requests by error kind (validation, internal, persistence).",
		}, []string{"kind"}),
		inference: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lesionscan",
			Name:      "inference_duration_seconds",
			Help:      "Time spent scoring a single image.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
