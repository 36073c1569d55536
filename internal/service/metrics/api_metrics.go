package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tradyxa",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradyxa",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by API endpoint",
		},
		[]string{"endpoint"},
	)

	SnapshotRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradyxa",
			Subsystem: "pipeline",
			Name:      "refreshes_total",
			Help:      "Snapshot refreshes by outcome",
		},
		[]string{"outcome"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, SnapshotRefreshes)
	})
}
