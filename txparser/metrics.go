package txparser

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	TierRegistry = "registry"
	TierSchema   = "schema"
	TierOpaque   = "opaque"
)

// Metrics holds the parser's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	transactionsTotal   *prometheus.CounterVec
	actionsTotal        *prometheus.CounterVec
	decodeMismatchTotal *prometheus.CounterVec
	decodeDuration      prometheus.Histogram
	schemaCacheLookups  *prometheus.CounterVec
	schemaFetchDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with registry.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		transactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_tx_parser_transactions_total",
				Help: "Total number of transactions decoded by outcome",
			},
			[]string{"status"},
		),
		actionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_tx_parser_actions_total",
				Help: "Total number of actions produced by protocol and resolution tier",
			},
			[]string{"protocol", "tier"},
		),
		decodeMismatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_tx_parser_decode_mismatch_total",
				Help: "Total number of instructions a registered decoder declined",
			},
			[]string{"decoder"},
		),
		decodeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "solana_tx_parser_decode_duration_seconds",
				Help:    "Duration of a whole transaction decode in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
		),
		schemaCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_tx_parser_schema_cache_lookups_total",
				Help: "Total number of schema cache lookups by result",
			},
			[]string{"result"},
		),
		schemaFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_tx_parser_schema_fetch_duration_seconds",
				Help:    "Duration of on-chain schema fetches in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"status"},
		),
	}
}

// RecordTransaction records one decoded transaction and how long it took.
func (m *Metrics) RecordTransaction(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.transactionsTotal.WithLabelValues(status).Inc()
	m.decodeDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordAction(protocol, tier string) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(protocol, tier).Inc()
}

func (m *Metrics) RecordDecodeMismatch(decoder string) {
	if m == nil {
		return
	}
	m.decodeMismatchTotal.WithLabelValues(decoder).Inc()
}

// ObserveLookup and ObserveFetch let the schema cache report into the same
// registry.
func (m *Metrics) ObserveLookup(result string) {
	if m == nil {
		return
	}
	m.schemaCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.schemaFetchDuration.WithLabelValues(status).Observe(d.Seconds())
}
