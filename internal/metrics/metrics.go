// Package metrics provides Prometheus instrumentation for the screening gateway.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instakyc",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "instakyc",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SanctionsSearchesTotal counts fuzzy name searches served.
	SanctionsSearchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "instakyc",
		Name:      "sanctions_searches_total",
		Help:      "Total sanctions name searches served.",
	})

	// DatasetRefreshTotal counts dataset refresh attempts by result.
	DatasetRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instakyc",
			Name:      "dataset_refresh_total",
			Help:      "Total sanctions dataset refresh attempts by result.",
		},
		[]string{"result"},
	)

	// DatasetRecords tracks the record count of the loaded dataset snapshot.
	DatasetRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "instakyc",
		Name:      "dataset_records",
		Help:      "Number of records in the loaded sanctions dataset snapshot.",
	})

	// DatasetStale is 1 while the served dataset snapshot is a stale fallback.
	DatasetStale = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "instakyc",
		Name:      "dataset_stale",
		Help:      "Whether the served sanctions dataset snapshot is stale (1) or fresh (0).",
	})

	// AssessmentsTotal counts account risk assessments by resulting tier.
	AssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instakyc",
			Name:      "assessments_total",
			Help:      "Total account risk assessments by risk tier.",
		},
		[]string{"risk"},
	)

	// TasksEnqueuedTotal counts screening tasks accepted into the queue.
	TasksEnqueuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "instakyc",
		Name:      "tasks_enqueued_total",
		Help:      "Total screening tasks enqueued.",
	})

	// TasksProcessedTotal counts completed worker runs by outcome.
	TasksProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instakyc",
			Name:      "tasks_processed_total",
			Help:      "Total screening tasks processed by final status.",
		},
		[]string{"status"},
	)

	// TaskQueueDepth tracks the pending task backlog.
	TaskQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "instakyc",
		Name:      "task_queue_depth",
		Help:      "Number of screening tasks waiting in the queue.",
	})

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "instakyc",
		Name:      "active_websocket_clients",
		Help:      "Number of currently connected WebSocket clients.",
	})

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "instakyc", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "instakyc", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "instakyc", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// DBWaitCount tracks the total number of connections waited for.
	DBWaitCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "instakyc", Name: "db_wait_count_total",
		Help: "Total number of connections waited for.",
	})
	// DBWaitDuration tracks total time waited for connections.
	DBWaitDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "instakyc", Name: "db_wait_duration_seconds_total",
		Help: "Total time waited for connections in seconds.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "instakyc", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SanctionsSearchesTotal,
		DatasetRefreshTotal,
		DatasetRecords,
		DatasetStale,
		AssessmentsTotal,
		TasksEnqueuedTotal,
		TasksProcessedTotal,
		TaskQueueDepth,
		ActiveWebSocketClients,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		DBWaitCount,
		DBWaitDuration,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			DBWaitCount.Set(float64(stats.WaitCount))
			DBWaitDuration.Set(stats.WaitDuration.Seconds())
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
