package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	syncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_sync_runs_total",
			Help: "Total number of feed sync runs by outcome.",
		},
		[]string{"status"},
	)
	syncProductsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_sync_products_total",
			Help: "Total number of products processed by sync runs.",
		},
		[]string{"result"},
	)
	syncRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_sync_duration_seconds",
			Help:    "Histogram of feed sync run durations.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(syncRunsTotal)
	prometheus.MustRegister(syncProductsTotal)
	prometheus.MustRegister(syncRunDuration)
}

// RecordRequest записывает метрики для HTTP-запроса.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordSyncRun записывает метрики одного запуска синхронизации фида.
func RecordSyncRun(status string, duration time.Duration, succeeded, failed int) {
	syncRunsTotal.WithLabelValues(status).Inc()
	syncRunDuration.Observe(duration.Seconds())
	if succeeded > 0 {
		syncProductsTotal.WithLabelValues("succeeded").Add(float64(succeeded))
	}
	if failed > 0 {
		syncProductsTotal.WithLabelValues("failed").Add(float64(failed))
	}
}

// classifyStatus классифицирует HTTP-статус код в строку.
func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler возвращает HTTP-обработчик для экспорта метрик Prometheus.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
