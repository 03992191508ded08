package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus instruments scraped from /metrics.
type Metrics struct {
	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	storeOps        *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	importRows      *prometheus.CounterVec
	importBatchSize prometheus.Histogram
	subscribers     *prometheus.GaugeVec
	monthlyRevenue  prometheus.Gauge
}

// NewMetrics registers the cabledesk collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cabledesk_api_requests_total",
		Help: "Counts API requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cabledesk_api_duration_seconds",
		Help:    "API request latency per method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	storeOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cabledesk_store_operations_total",
		Help: "Record store calls by backend, operation, and outcome.",
	}, []string{"backend", "operation", "outcome"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cabledesk_store_duration_seconds",
		Help:    "Record store call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cabledesk_import_rows_total",
		Help: "Spreadsheet rows seen by the bulk importer, by outcome.",
	}, []string{"outcome"})

	importBatchSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cabledesk_import_batch_size",
		Help:    "Accepted rows per import batch.",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
	})

	subscribers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cabledesk_subscribers",
		Help: "Subscribers in the last derived view, by status.",
	}, []string{"status"})

	monthlyRevenue := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cabledesk_active_monthly_revenue",
		Help: "Sum of monthly fees of active subscribers in the last derived view.",
	})

	reg.MustRegister(
		apiRequests,
		apiDuration,
		storeOps,
		storeDuration,
		importRows,
		importBatchSize,
		subscribers,
		monthlyRevenue,
	)

	return &Metrics{
		apiRequests:     apiRequests,
		apiDuration:     apiDuration,
		storeOps:        storeOps,
		storeDuration:   storeDuration,
		importRows:      importRows,
		importBatchSize: importBatchSize,
		subscribers:     subscribers,
		monthlyRevenue:  monthlyRevenue,
	}
}

// ObserveAPIRequest records an API request and latency.
func (m *Metrics) ObserveAPIRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	methodLabel := sanitizeLabel(method)
	routeLabel := sanitizeLabel(route)
	m.apiRequests.WithLabelValues(methodLabel, routeLabel, sanitizeLabel(status)).Inc()
	m.apiDuration.WithLabelValues(methodLabel, routeLabel).Observe(duration.Seconds())
}

// ObserveStoreOperation records one record store call.
func (m *Metrics) ObserveStoreOperation(backend, operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	backendLabel := sanitizeLabel(backend)
	m.storeOps.WithLabelValues(backendLabel, sanitizeLabel(operation), outcome).Inc()
	m.storeDuration.WithLabelValues(backendLabel, sanitizeLabel(operation)).Observe(duration.Seconds())
}

// ObserveImport records the accepted and skipped row counts of one import.
func (m *Metrics) ObserveImport(accepted, skipped int) {
	if m == nil {
		return
	}
	if accepted > 0 {
		m.importRows.WithLabelValues("accepted").Add(float64(accepted))
		m.importBatchSize.Observe(float64(accepted))
	}
	if skipped > 0 {
		m.importRows.WithLabelValues("skipped").Add(float64(skipped))
	}
}

// ObserveStats publishes the headline stats of a derived view.
func (m *Metrics) ObserveStats(total, active int, revenue float64) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues("all").Set(float64(total))
	m.subscribers.WithLabelValues("active").Set(float64(active))
	m.monthlyRevenue.Set(revenue)
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
