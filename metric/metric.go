// Package metric provides Prometheus metrics for the indexing engine and its
// service shell. The engine records durations and counts through the Metrics
// struct; the Registry owns the Prometheus registry and runtime collectors.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation label values for duration metrics.
const (
	OpTransform = "transform"
	OpIndex     = "index"
	OpAppend    = "append"
	OpLookup    = "lookup"
)

// Metrics contains all engine and service metrics
type Metrics struct {
	OperationDuration *prometheus.HistogramVec
	EntitiesIndexed   *prometheus.CounterVec
	EntitiesSkipped   *prometheus.CounterVec
	LookupsTotal      *prometheus.CounterVec
	RootsIndexed      prometheus.Gauge
	StoreItems        prometheus.Gauge
	Rebuilds          prometheus.Counter
	Appends           prometheus.Counter
	IngestMessages    *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "jsonindex",
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Engine operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		EntitiesIndexed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jsonindex",
				Subsystem: "engine",
				Name:      "entities_indexed_total",
				Help:      "Total number of entities indexed",
			},
			[]string{"root"},
		),

		EntitiesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jsonindex",
				Subsystem: "engine",
				Name:      "entities_skipped_total",
				Help:      "Total number of elements skipped for lacking an extractable ID",
			},
			[]string{"root"},
		),

		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jsonindex",
				Subsystem: "engine",
				Name:      "lookups_total",
				Help:      "Total number of lookups by outcome",
			},
			[]string{"status"},
		),

		RootsIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "jsonindex",
				Subsystem: "store",
				Name:      "roots",
				Help:      "Number of root collections in the live store",
			},
		),

		StoreItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "jsonindex",
				Subsystem: "store",
				Name:      "items",
				Help:      "Total number of items in the live store, excluding aggregates",
			},
		),

		Rebuilds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "jsonindex",
				Subsystem: "store",
				Name:      "rebuilds_total",
				Help:      "Total number of full store rebuilds",
			},
		),

		Appends: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "jsonindex",
				Subsystem: "store",
				Name:      "appends_total",
				Help:      "Total number of incremental appends",
			},
		),

		IngestMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jsonindex",
				Subsystem: "service",
				Name:      "ingest_messages_total",
				Help:      "Total number of ingest messages by status",
			},
			[]string{"status"},
		),
	}
}

// RecordDuration records an operation duration
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordEntitiesIndexed adds to the indexed-entity counter for a root
func (m *Metrics) RecordEntitiesIndexed(root string, n int) {
	if n > 0 {
		m.EntitiesIndexed.WithLabelValues(root).Add(float64(n))
	}
}

// RecordEntitiesSkipped adds to the skipped-element counter for a root
func (m *Metrics) RecordEntitiesSkipped(root string, n int) {
	if n > 0 {
		m.EntitiesSkipped.WithLabelValues(root).Add(float64(n))
	}
}

// RecordLookup increments the lookup counter with a hit/miss status
func (m *Metrics) RecordLookup(hit bool) {
	status := "miss"
	if hit {
		status = "hit"
	}
	m.LookupsTotal.WithLabelValues(status).Inc()
}

// RecordStoreSize updates the live store gauges
func (m *Metrics) RecordStoreSize(roots, items int) {
	m.RootsIndexed.Set(float64(roots))
	m.StoreItems.Set(float64(items))
}

// RecordRebuild increments the rebuild counter
func (m *Metrics) RecordRebuild() {
	m.Rebuilds.Inc()
}

// RecordAppend increments the append counter
func (m *Metrics) RecordAppend() {
	m.Appends.Inc()
}

// RecordIngest increments the ingest message counter
func (m *Metrics) RecordIngest(status string) {
	m.IngestMessages.WithLabelValues(status).Inc()
}

// Registry owns the Prometheus registry and the engine metrics
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry creates a registry with engine metrics and Go runtime collectors
func NewRegistry() *Registry {
	prometheusRegistry := prometheus.NewRegistry()

	r := &Registry{
		prometheusRegistry: prometheusRegistry,
		Metrics:            NewMetrics(),
	}

	prometheusRegistry.MustRegister(
		r.Metrics.OperationDuration,
		r.Metrics.EntitiesIndexed,
		r.Metrics.EntitiesSkipped,
		r.Metrics.LookupsTotal,
		r.Metrics.RootsIndexed,
		r.Metrics.StoreItems,
		r.Metrics.Rebuilds,
		r.Metrics.Appends,
		r.Metrics.IngestMessages,
	)

	prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Handler returns an HTTP handler serving the registry's metrics
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
}
