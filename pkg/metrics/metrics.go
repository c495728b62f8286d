// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook event outcomes.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeSkipped   = "skipped"
	OutcomeNoAccount = "no_account"
	OutcomeFailed    = "failed"
)

// Reply outcomes.
const (
	ReplySent     = "sent"
	ReplyQueued   = "queued"
	ReplyRetried  = "retried"
	ReplyFailed   = "failed"
	ReplyDropped  = "dropped"
	ReplyManual   = "manual"
	ReplyRejected = "rejected"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WebhookEventsTotal counts messaging events by processing outcome.
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Messaging events processed, by outcome",
		},
		[]string{"object", "outcome"},
	)

	// RepliesTotal counts outbound replies by outcome.
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replies_total",
			Help: "Outbound replies, by outcome",
		},
		[]string{"outcome"},
	)

	// GraphRequestDuration tracks Send API latency.
	GraphRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_request_duration_seconds",
			Help:    "Graph Send API request duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)

	// UnmatchedPurgedTotal counts unmatched queries removed by retention.
	UnmatchedPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unmatched_purged_total",
			Help: "Unmatched queries deleted by the retention purge",
		},
	)

	// SSEConnectionsActive tracks active live chat streams.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// NATSStreamMessages tracks messages in NATS stream.
	NATSStreamMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_messages",
			Help: "Number of messages in NATS stream",
		},
		[]string{"stream"},
	)

	// NATSConsumerPending tracks pending messages for consumers.
	NATSConsumerPending = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_consumer_pending",
			Help: "Pending messages for NATS consumer",
		},
		[]string{"stream", "consumer"},
	)

	// LLMRequestDuration tracks suggestion completions.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model", "status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordEvent counts one messaging event.
func RecordEvent(object, outcome string) {
	WebhookEventsTotal.WithLabelValues(object, outcome).Inc()
}

// RecordReply counts one reply outcome.
func RecordReply(outcome string) {
	RepliesTotal.WithLabelValues(outcome).Inc()
}

// RecordGraphRequest records a Send API call; status is the HTTP status or "error".
func RecordGraphRequest(status string, duration float64) {
	GraphRequestDuration.WithLabelValues(status).Observe(duration)
}

// RecordPurge adds n deleted rows.
func RecordPurge(n int64) {
	UnmatchedPurgedTotal.Add(float64(n))
}

// RecordLLM records a completion.
func RecordLLM(model, status string, duration float64) {
	LLMRequestDuration.WithLabelValues(model, status).Observe(duration)
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
