// Package metrics defines the Prometheus metric collectors used by the tally
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the tally service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	JobsTotal            *prometheus.CounterVec
	JobDuration          prometheus.Histogram
	JobWorkers           prometheus.Histogram
	LinesProcessedTotal  prometheus.Counter
	DistinctKeys         prometheus.Gauge
	ReportCacheHitsTotal prometheus.Counter
	ReportCacheMissTotal prometheus.Counter
	SnapshotSavesTotal   *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_jobs_total",
				Help: "Total tally jobs by outcome (ok, config_error, resource_error).",
			},
			[]string{"status"},
		),
		JobDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tally_job_duration_seconds",
				Help:    "Wall-clock duration of a full count-and-rank job.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		JobWorkers: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tally_job_workers",
				Help:    "Worker count used per job.",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
			},
		),
		LinesProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tally_lines_processed_total",
				Help: "Total corpus lines bumped into the counting table.",
			},
		),
		DistinctKeys: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tally_distinct_keys",
				Help: "Distinct keys seen by the most recent job.",
			},
		),
		ReportCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "report_cache_hits_total",
				Help: "Total report cache hits.",
			},
		),
		ReportCacheMissTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "report_cache_misses_total",
				Help: "Total report cache misses.",
			},
		),
		SnapshotSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapshot_saves_total",
				Help: "Total snapshot persistence attempts by status.",
			},
			[]string{"status"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.JobsTotal,
		m.JobDuration,
		m.JobWorkers,
		m.LinesProcessedTotal,
		m.DistinctKeys,
		m.ReportCacheHitsTotal,
		m.ReportCacheMissTotal,
		m.SnapshotSavesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
