package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "points_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PointOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_operations_total",
			Help: "Total number of point operations by outcome",
		},
		[]string{"operation", "result"},
	)

	PointAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_amount_total",
			Help: "Sum of charged and used point amounts",
		},
		[]string{"type"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordPointOperation(operation, result string) {
	PointOperationsTotal.WithLabelValues(operation, result).Inc()
}

func RecordPointAmount(txType string, amount int64) {
	PointAmountTotal.WithLabelValues(txType).Add(float64(amount))
}
