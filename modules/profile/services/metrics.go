package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	refreshTotal    *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	fastPathTotal   *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		refreshTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profile",
			Name:      "refresh_total",
			Help:      "Total number of profile refresh invocations by outcome.",
		}, []string{"result"}),
		refreshDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "profile",
			Name:      "refresh_duration_seconds",
			Help:      "Duration distribution for profile refresh invocations.",
			Buckets: []float64{
				0.001, 0.002, 0.005,
				0.01, 0.02, 0.05,
				0.1, 0.2, 0.5,
				1, 2, 5,
			},
		}, []string{"result"}),
		fastPathTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profile",
			Name:      "fast_path_total",
			Help:      "Total number of identity fast-path operations by kind.",
		}, []string{"op", "result"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
