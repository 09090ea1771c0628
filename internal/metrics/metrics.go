package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request counter
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTP request duration histogram
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// Active HTTP connections gauge
	HTTPActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	// Identity resolution outcomes
	PatientResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patient_resolutions_total",
			Help: "Total number of patient identity resolutions",
		},
		[]string{"outcome"}, // "matched_id", "matched_name", "created"
	)

	// Duplicate visits silently skipped by the duplicate guard
	DuplicateVisitsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicate_visits_skipped_total",
			Help: "Total number of duplicate visit records skipped",
		},
	)

	// Ingestion record outcomes per source file type
	IngestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_records_total",
			Help: "Total number of ingested records by outcome",
		},
		[]string{"source", "outcome"}, // outcome: "imported", "failed"
	)

	// Cost ledger categorization outcomes
	CostEntriesCategorized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cost_entries_categorized_total",
			Help: "Total number of cost ledger entries by category",
		},
		[]string{"category"},
	)

	// Reconciliation report builds
	ReportBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_builds_total",
			Help: "Total number of reconciliation report builds",
		},
		[]string{"result"}, // "success", "failed"
	)

	GoMemstatsAllocBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reconcile_go_memstats_alloc_bytes",
			Help: "Number of bytes allocated and still in use",
		},
		[]string{"service"},
	)

	GoMemstatsSysBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reconcile_go_memstats_sys_bytes",
			Help: "Number of bytes obtained from system",
		},
		[]string{"service"},
	)

	GoThreads = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reconcile_go_threads",
			Help: "Number of OS threads created",
		},
		[]string{"service"},
	)
)

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)

	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordPatientResolution records an identity resolution outcome
func RecordPatientResolution(outcome string) {
	PatientResolutionsTotal.WithLabelValues(outcome).Inc()
}

// RecordIngestRecord records a per-record ingestion outcome
func RecordIngestRecord(source, outcome string) {
	IngestRecordsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordCostCategory records a cost entry categorization outcome
func RecordCostCategory(category string) {
	CostEntriesCategorized.WithLabelValues(category).Inc()
}

// IncActiveConnections increments active connections
func IncActiveConnections() {
	HTTPActiveConnections.Inc()
}

// DecActiveConnections decrements active connections
func DecActiveConnections() {
	HTTPActiveConnections.Dec()
}

// UpdateRuntimeMetrics updates Go runtime metrics with service label
func UpdateRuntimeMetrics(serviceName string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	GoMemstatsAllocBytes.WithLabelValues(serviceName).Set(float64(m.Alloc))
	GoMemstatsSysBytes.WithLabelValues(serviceName).Set(float64(m.Sys))
	GoThreads.WithLabelValues(serviceName).Set(float64(runtime.GOMAXPROCS(0)))
}
