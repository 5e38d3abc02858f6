package prometheus

import "github.com/prometheus/client_golang/prometheus"

// Default buckets.
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultStageDurationBuckets = []float64{.05, .1, .5, 1, 5, 10, 30, 60, 120, 300}
	DefaultIterationBuckets     = []float64{1, 5, 10, 25, 50, 100, 250, 500}
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// Pipeline
	PipelineRunsTotal     *prometheus.CounterVec
	PipelineStageDuration *prometheus.HistogramVec
	UnresolvedCellsTotal  *prometheus.CounterVec
	CountriesRetained     prometheus.Gauge
	SolverIterations      prometheus.Observer

	// Data sources
	FetchesTotal *prometheus.CounterVec

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewAppMetrics registers every metric on collector and returns the set.
func NewAppMetrics(collector *Collector) *AppMetrics {
	m := &AppMetrics{}

	m.PipelineRunsTotal = collector.RegisterCounter(
		"pipeline_runs_total", "Estimation pipeline runs", "status")
	m.PipelineStageDuration = collector.RegisterHistogram(
		"pipeline_stage_duration_seconds", "Duration per pipeline stage",
		DefaultStageDurationBuckets, "stage")
	m.UnresolvedCellsTotal = collector.RegisterCounter(
		"unresolved_cells_total", "Design matrix cells left unresolved", "reason")
	m.CountriesRetained = collector.RegisterGauge(
		"countries_retained", "Country rows surviving the row filter").WithLabelValues()
	m.SolverIterations = collector.RegisterHistogram(
		"solver_iterations", "NNLS active-set iterations per solve",
		DefaultIterationBuckets).WithLabelValues()

	m.FetchesTotal = collector.RegisterCounter(
		"datasource_fetches_total", "External data source fetches", "source", "status")

	m.HTTPRequestsTotal = collector.RegisterCounter(
		"http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram(
		"http_request_duration_seconds", "HTTP request duration",
		DefaultHTTPDurationBuckets, "method", "path")

	return m
}
