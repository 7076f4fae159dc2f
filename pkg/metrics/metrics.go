// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration on the chat backend.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests on the chat backend.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ClientCallDuration tracks API calls issued by the chat client.
	ClientCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_call_duration_seconds",
			Help:    "Chat client API call duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"method", "endpoint", "outcome"},
	)

	// ClientCallsTotal counts chat client API calls by outcome.
	ClientCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_calls_total",
			Help: "Total chat client API calls",
		},
		[]string{"method", "endpoint", "outcome"},
	)

	// MessagesSentTotal counts sendMessage attempts by result.
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_messages_sent_total",
			Help: "Messages sent from the active session",
		},
		[]string{"result"},
	)

	// ReconcilesTotal counts directory resynchronizations after deletes.
	ReconcilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_reconciles_total",
			Help: "Directory reconciliations after delete",
		},
		[]string{"trigger"},
	)

	// LLMCompletionDuration tracks reply generation duration on the backend.
	LLMCompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{.1, .5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"provider", "direction"},
	)

	// ConversationEventsTotal counts conversation lifecycle events by type.
	ConversationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_events_total",
			Help: "Conversation lifecycle events",
		},
		[]string{"type"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordClientCall records metrics for an outbound API call.
func RecordClientCall(method, endpoint, outcome string, duration float64) {
	ClientCallDuration.WithLabelValues(method, endpoint, outcome).Observe(duration)
	ClientCallsTotal.WithLabelValues(method, endpoint, outcome).Inc()
}

// RecordLLMCompletion records metrics for a generated reply.
func RecordLLMCompletion(provider, status string, duration float64, tokensIn, tokensOut int) {
	LLMCompletionDuration.WithLabelValues(provider, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(provider, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(provider, "out").Add(float64(tokensOut))
}
