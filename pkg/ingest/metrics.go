package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the pipeline's Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "formstore").
	Namespace string

	// Subsystem is the metrics subsystem (default: "ingest").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for stored part sizes.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the pipeline metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the size histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "formstore",
		Subsystem: "ingest",
		// 1KB to 8MB
		Buckets:  []float64{1 << 10, 16 << 10, 128 << 10, 512 << 10, 1 << 20, 2 << 20, 5 << 20, 8 << 20},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Metrics holds the pipeline's Prometheus collectors.
// A nil *Metrics records nothing.
type Metrics struct {
	partsTotal    *prometheus.CounterVec
	storedBytes   *prometheus.HistogramVec
	requestsTotal *prometheus.CounterVec
	inFlight      prometheus.Gauge
}

// NewMetrics registers the pipeline metrics.
//
// Metrics collected:
//   - formstore_ingest_parts_total: parts by field, status and reason
//   - formstore_ingest_stored_bytes: sizes of stored parts by category
//   - formstore_ingest_requests_total: requests by result (ok, partial, failed)
//   - formstore_ingest_in_flight_requests: requests currently being processed
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		partsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "parts_total",
			Help:        "Total number of file parts processed",
			ConstLabels: config.ConstLabels,
		}, []string{"field", "status", "reason"}),

		storedBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stored_bytes",
			Help:        "Size of stored parts in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"category"}),

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Total number of multipart requests processed",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "in_flight_requests",
			Help:        "Number of multipart requests currently being processed",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) requestStarted() {
	if m != nil {
		m.inFlight.Inc()
	}
}

func (m *Metrics) requestDone(out *RequestOutcome, err error) {
	if m == nil {
		return
	}
	m.inFlight.Dec()

	result := "ok"
	switch {
	case err != nil:
		result = "failed"
	case !out.OK():
		result = "partial"
	}
	m.requestsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) observePart(po PartOutcome) {
	if m == nil {
		return
	}
	m.partsTotal.WithLabelValues(fieldLabel(po), string(po.Status), string(po.Reason)).Inc()
	if po.Status == StatusStored {
		m.storedBytes.WithLabelValues(po.Category.String()).Observe(float64(po.Size))
	}
}

// fieldLabel keeps label cardinality bounded: field names of unknown
// fields come from clients and are folded together.
func fieldLabel(po PartOutcome) string {
	switch {
	case po.Field == "":
		return "none"
	case po.Reason == ReasonUnknownField:
		return "unknown"
	default:
		return po.Field
	}
}
