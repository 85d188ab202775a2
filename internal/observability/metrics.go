package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfill",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fulfill",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfill",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Requests sent to dependent services.",
		},
		[]string{"node", "upstream", "method", "path", "status", "success"},
	)
	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fulfill",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Dependent service request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "upstream", "method", "path", "status", "success"},
	)
	sagaSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fulfill",
			Subsystem: "saga",
			Name:      "steps_total",
			Help:      "Order saga steps by outcome.",
		},
		[]string{"saga", "step", "outcome"},
	)
	stockLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fulfill",
			Subsystem: "inventory",
			Name:      "available_count",
			Help:      "Available units per item after the last stock mutation.",
		},
		[]string{"model", "size"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, upstreamRequests, upstreamDuration, sagaSteps, stockLevel)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordUpstream records one call to a dependent service. status is 0 when no response arrived.
func RecordUpstream(node, upstream, method, path string, status int, duration time.Duration, success bool) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	successLabel := strconv.FormatBool(success)
	upstreamRequests.WithLabelValues(node, upstream, method, path, statusLabel, successLabel).Inc()
	upstreamDuration.WithLabelValues(node, upstream, method, path, statusLabel, successLabel).
		Observe(duration.Seconds())
}

func RecordSagaStep(saga, step, outcome string) {
	RegisterMetrics()
	sagaSteps.WithLabelValues(saga, step, outcome).Inc()
}

func SetStockLevel(model, size string, available int) {
	RegisterMetrics()
	stockLevel.WithLabelValues(model, size).Set(float64(available))
}
