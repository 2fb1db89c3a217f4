package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "oceanresq"

// Metrics holds the Prometheus collectors for the report service.
type Metrics struct {
	// Lifecycle.
	ReportsSubmitted  *prometheus.CounterVec // labels: hazard_type, severity
	StatusTransitions *prometheus.CounterVec // labels: status
	ReportsResolved   prometheus.Counter
	ResponseMinutes   prometheus.Histogram

	// Reads.
	NearbyQueries     prometheus.Counter
	NearbyResults     prometheus.Histogram
	AnalyticsDuration *prometheus.HistogramVec // labels: kind={analytics,dashboard}
	AnalyticsCache    *prometheus.CounterVec   // labels: result={hit,miss,error}

	// Notifications.
	Notifications *prometheus.CounterVec // labels: outcome={queued,queue_error,delivered,failed}

	// HTTP.
	HTTPRequests *prometheus.CounterVec   // labels: method, route, code
	HTTPDuration *prometheus.HistogramVec // labels: method, route
}

func build() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Hazard reports accepted, by hazard type and severity.",
		}, []string{"hazard_type", "severity"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_status_changes_total",
			Help:      "Status updates applied, by target status.",
		}, []string{"status"}),
		ReportsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_resolved_total",
			Help:      "Reports whose resolution time was recorded.",
		}),
		ResponseMinutes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_response_minutes",
			Help:      "Minutes from submission to first resolution.",
			Buckets:   []float64{5, 15, 30, 60, 120, 240, 480, 1440, 4320},
		}),
		NearbyQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nearby_queries_total",
			Help:      "Proximity searches served.",
		}),
		NearbyResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "nearby_results",
			Help:      "Reports returned per proximity search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		}),
		AnalyticsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analytics_duration_seconds",
			Help:      "Time spent aggregating analytics and dashboard data.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
		AnalyticsCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_cache_total",
			Help:      "Analytics cache lookups by result.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "critical_notifications_total",
			Help:      "Critical report notifications by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsSubmitted,
		m.StatusTransitions,
		m.ReportsResolved,
		m.ResponseMinutes,
		m.NearbyQueries,
		m.NearbyResults,
		m.AnalyticsDuration,
		m.AnalyticsCache,
		m.Notifications,
		m.HTTPRequests,
		m.HTTPDuration,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	m := build()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry so tests can build
// as many as they like.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWithRegisterer(prometheus.NewRegistry())
}
