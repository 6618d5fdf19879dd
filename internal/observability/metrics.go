package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crime_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Refresh cycle metrics.
	Refreshes        *prometheus.CounterVec // labels: outcome={success,lookup_error,invalid_query,fetch_error}
	RefreshDuration  prometheus.Histogram
	DatasetIncidents prometheus.Gauge
	RejectedRecords  *prometheus.CounterVec // labels: field

	// Socrata fetch metrics.
	FetchRequests      *prometheus.CounterVec // labels: outcome={success,error,rejected}
	FetchDuration      prometheus.Histogram
	FetchedRecords     prometheus.Histogram
	FetchCache         *prometheus.CounterVec // labels: result={hit,miss,expired,evicted}
	CircuitBreakerOpen prometheus.Gauge

	// Refresh recorder metrics.
	RecorderErrors *prometheus.CounterVec // labels: recorder={sqlite,kafka}
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Refreshes,
		m.RefreshDuration,
		m.DatasetIncidents,
		m.RejectedRecords,
		m.FetchRequests,
		m.FetchDuration,
		m.FetchedRecords,
		m.FetchCache,
		m.CircuitBreakerOpen,
		m.RecorderErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Dashboard refresh cycles by outcome.",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-clean-aggregate refresh.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DatasetIncidents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_incidents",
			Help:      "Incidents in the most recently refreshed dataset.",
		}),
		RejectedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_records_total",
			Help:      "Incident records excluded because a field failed to parse.",
		}, []string{"field"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Socrata API fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Socrata API request duration in seconds, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FetchedRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetched_records",
			Help:      "Records returned per Socrata fetch.",
			Buckets:   []float64{0, 10, 100, 1000, 10000, 50000, 100000, 250000},
		}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      "Fetch cache lookups by result.",
		}, []string{"result"}),
		CircuitBreakerOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_open",
			Help:      "1 when the Socrata circuit breaker is open, 0 otherwise.",
		}),
		RecorderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorder_errors_total",
			Help:      "Failures to record a refresh, by recorder.",
		}, []string{"recorder"}),
	}
}
