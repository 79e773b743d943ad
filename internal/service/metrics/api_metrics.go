package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shottrace",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of round API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shottrace",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by round API endpoint and code",
		},
		[]string{"endpoint", "code"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shottrace",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Analyze requests rejected by the per-client limiter",
		},
	)
)

// Register adds the API collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, RateLimited)
	})
}
