// Package metrics provides Prometheus metrics for decode runs.
//
// The CLI is a batch tool without an HTTP endpoint, so metrics are collected
// in a private registry and written to a node_exporter textfile at the end
// of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Document statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusWarning = "warning"
)

// Metrics holds the collectors of one run.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal *prometheus.CounterVec
	RecordsTotal   *prometheus.CounterVec
	AbrufeTotal    *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
	WarningsTotal  *prometheus.CounterVec
	DecodeDuration *prometheus.HistogramVec
	Chain517Depth  prometheus.Histogram
}

// New registers the collectors in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		DocumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vda_documents_total",
				Help: "Total number of documents processed",
			},
			[]string{"partner", "status"},
		),

		RecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vda_records_total",
				Help: "Total number of records decoded",
			},
			[]string{"partner", "record"},
		),

		AbrufeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vda_abrufe_total",
				Help: "Total number of call-offs decoded",
			},
			[]string{"partner"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vda_decode_errors_total",
				Help: "Total number of failed documents by error code",
			},
			[]string{"partner", "code"},
		),

		WarningsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vda_validation_warnings_total",
				Help: "Total number of validation warnings by rule",
			},
			[]string{"partner", "rule"},
		),

		DecodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vda_decode_duration_seconds",
				Help:    "Time taken to decode a document",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"partner"},
		),

		Chain517Depth: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vda_satz517_chain_depth",
				Help:    "Number of Satz517 records per chain",
				Buckets: []float64{1, 2, 5, 10, 50, 100, 1000},
			},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDecode records the outcome of one decode.
func (m *Metrics) ObserveDecode(partner string, duration time.Duration, err error, code string) {
	m.DecodeDuration.WithLabelValues(partner).Observe(duration.Seconds())
	if err != nil {
		m.DocumentsTotal.WithLabelValues(partner, StatusFailed).Inc()
		m.ErrorsTotal.WithLabelValues(partner, code).Inc()
	}
}

// ObserveDocument records a successfully decoded document.
func (m *Metrics) ObserveDocument(partner string, records map[string]int, abrufe int, warnings []string) {
	status := StatusOK
	if len(warnings) > 0 {
		status = StatusWarning
	}
	m.DocumentsTotal.WithLabelValues(partner, status).Inc()

	for record, n := range records {
		m.RecordsTotal.WithLabelValues(partner, record).Add(float64(n))
	}
	m.AbrufeTotal.WithLabelValues(partner).Add(float64(abrufe))
	for _, rule := range warnings {
		m.WarningsTotal.WithLabelValues(partner, rule).Inc()
	}
}

// ObserveChain records the depth of a Satz517 chain.
func (m *Metrics) ObserveChain(depth int) {
	m.Chain517Depth.Observe(float64(depth))
}

// WriteToTextfile writes all metrics in the text exposition format.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
