// Package metrics holds the Prometheus collectors for prediction runs,
// uploads and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dropwatch"

var (
	// PredictionRuns counts finished prediction runs.
	// Labels: trigger (api, queue, sweep, cli), outcome (ok, partial, invalid, read_failed, write_failed)
	PredictionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "prediction",
		Name:      "runs_total",
		Help:      "Total prediction runs by trigger and outcome",
	}, []string{"trigger", "outcome"})

	// PredictionRecords counts records by what happened to them.
	// Labels: result (scored, skipped, dropped)
	PredictionRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "prediction",
		Name:      "records_total",
		Help:      "Student records handled by prediction runs",
	}, []string{"result"})

	// PredictionBatches counts batch writes.
	// Labels: status (ok, failed)
	PredictionBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "prediction",
		Name:      "batches_total",
		Help:      "Prediction batch writes by status",
	}, []string{"status"})

	// PredictionRunDuration measures end-to-end run latency.
	PredictionRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "prediction",
		Name:      "run_duration_seconds",
		Help:      "Prediction run duration in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	// RiskLevels counts assigned levels.
	// Labels: level (low, medium, high)
	RiskLevels = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "prediction",
		Name:      "levels_total",
		Help:      "Risk levels assigned by persisted predictions",
	}, []string{"level"})

	// ImportRows counts upload rows.
	// Labels: result (inserted, duplicate, skipped, failed)
	ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Upload rows by result",
	}, []string{"result"})

	// HTTPRequests measures request latency.
	// Labels: method, route, status
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Middleware records HTTP latency by matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
