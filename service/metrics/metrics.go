package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal        *prometheus.CounterVec
	solanaRPCCallDuration      *prometheus.HistogramVec
	solanaRPCSignaturesPerCall *prometheus.HistogramVec

	// Monitor Metrics
	pollCycleDuration      prometheus.Histogram
	pollWalletErrorsTotal  *prometheus.CounterVec
	transactionsClassified *prometheus.CounterVec
	transactionsSkipped    *prometheus.CounterVec
	buysRecordedTotal      *prometheus.CounterVec
	seenSetSize            prometheus.Gauge
	pendingTokens          prometheus.Gauge

	// Signal Metrics
	signalsFiredTotal      prometheus.Counter
	signalDeliveriesTotal  *prometheus.CounterVec
	metadataLookupsTotal   *prometheus.CounterVec
	metadataLookupDuration *prometheus.HistogramVec

	// Database Metrics
	dbQueryDuration   *prometheus.HistogramVec
	dbOperationsTotal *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),
		solanaRPCSignaturesPerCall: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_signatures_per_call",
				Help:    "Number of signatures fetched per GetSignaturesForAddress call",
				Buckets: []float64{0, 1, 2, 5, 10, 50, 100},
			},
			[]string{"endpoint"},
		),

		// Monitor Metrics
		pollCycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "poll_cycle_duration_seconds",
				Help:    "Duration of one full polling cycle over the watchlist (excluding the sleep)",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		pollWalletErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poll_wallet_errors_total",
				Help: "Total number of per-wallet signature fetch failures",
			},
			[]string{"wallet_label"},
		),
		transactionsClassified: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_classified_total",
				Help: "Total number of transactions classified, by outcome",
			},
			[]string{"outcome"},
		),
		transactionsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_skipped_total",
				Help: "Total number of transactions skipped before classification",
			},
			[]string{"reason"},
		),
		buysRecordedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buys_recorded_total",
				Help: "Total number of qualifying buys handed to the aggregator",
			},
			[]string{"wallet_label"},
		),
		seenSetSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "seen_signatures",
				Help: "Number of signatures currently held by the seen filter",
			},
		),
		pendingTokens: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aggregator_pending_tokens",
				Help: "Number of tokens with at least one buy awaiting the wallet threshold",
			},
		),

		// Signal Metrics
		signalsFiredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "signals_fired_total",
				Help: "Total number of co-buy signals fired",
			},
		),
		signalDeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_deliveries_total",
				Help: "Total number of signal delivery attempts by channel and status",
			},
			[]string{"channel", "status"},
		),
		metadataLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "metadata_lookups_total",
				Help: "Total number of token metadata lookups by provider and status",
			},
			[]string{"provider", "status"},
		),
		metadataLookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "metadata_lookup_duration_seconds",
				Help:    "Duration of token metadata lookups in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"provider"},
		),

		// Database Metrics
		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "table"},
		),
		dbOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "status"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordRPCSignaturesPerCall records the number of signatures fetched.
func (m *Metrics) RecordRPCSignaturesPerCall(endpoint string, count float64) {
	m.solanaRPCSignaturesPerCall.WithLabelValues(endpoint).Observe(count)
}

// Monitor metric helpers

// RecordPollCycle records the duration of one polling cycle.
func (m *Metrics) RecordPollCycle(duration float64) {
	m.pollCycleDuration.Observe(duration)
}

// RecordWalletPollError records a failed signature fetch for a wallet.
func (m *Metrics) RecordWalletPollError(walletLabel string) {
	m.pollWalletErrorsTotal.WithLabelValues(walletLabel).Inc()
}

// RecordClassification records the outcome of classifying one transaction
// (e.g. "buy", "below_minimum", "no_token_transfer", "fetch_error").
func (m *Metrics) RecordClassification(outcome string) {
	m.transactionsClassified.WithLabelValues(outcome).Inc()
}

// RecordTransactionSkipped records a transaction skipped before classification.
func (m *Metrics) RecordTransactionSkipped(reason string) {
	m.transactionsSkipped.WithLabelValues(reason).Inc()
}

// RecordBuy records a qualifying buy.
func (m *Metrics) RecordBuy(walletLabel string) {
	m.buysRecordedTotal.WithLabelValues(walletLabel).Inc()
}

// SetSeenSetSize records the current size of the seen filter.
func (m *Metrics) SetSeenSetSize(n int) {
	m.seenSetSize.Set(float64(n))
}

// SetPendingTokens records the number of tokens with pending buys.
func (m *Metrics) SetPendingTokens(n int) {
	m.pendingTokens.Set(float64(n))
}

// Signal metric helpers

// RecordSignalFired records a fired signal.
func (m *Metrics) RecordSignalFired() {
	m.signalsFiredTotal.Inc()
}

// RecordSignalDelivery records a delivery attempt on a channel.
func (m *Metrics) RecordSignalDelivery(channel string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.signalDeliveriesTotal.WithLabelValues(channel, status).Inc()
}

// RecordMetadataLookup records a token metadata lookup.
func (m *Metrics) RecordMetadataLookup(provider, status string, duration float64) {
	m.metadataLookupsTotal.WithLabelValues(provider, status).Inc()
	m.metadataLookupDuration.WithLabelValues(provider).Observe(duration)
}

// Database metric helpers

// RecordDBQuery records a database query with duration.
func (m *Metrics) RecordDBQuery(operation, table string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
