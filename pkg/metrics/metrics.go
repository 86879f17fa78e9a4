// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
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

	// LLMStreamDuration tracks LLM streaming response duration.
	LLMStreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_stream_duration_seconds",
			Help:    "LLM streaming response duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// ToolCallsTotal tracks tool invocations issued by the assistant.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_calls_total",
			Help: "Total tool invocations by the booking assistant",
		},
		[]string{"tool", "outcome"},
	)

	// BookingsTotal tracks booking attempts by outcome.
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Total booking attempts",
		},
		[]string{"outcome"},
	)

	// AvailabilityQueriesTotal tracks free/busy availability lookups.
	AvailabilityQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_queries_total",
			Help: "Total availability computations",
		},
		[]string{"outcome"},
	)

	// TokenRefreshesTotal tracks calendar credential refreshes.
	TokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_token_refreshes_total",
			Help: "Total calendar access token refreshes",
		},
		[]string{"outcome"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMStream records metrics for an LLM streaming response.
func RecordLLMStream(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMStreamDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordToolCall records a tool invocation and its outcome.
func RecordToolCall(tool, outcome string) {
	ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
}

// RecordBooking records a booking attempt outcome.
func RecordBooking(outcome string) {
	BookingsTotal.WithLabelValues(outcome).Inc()
}

// RecordAvailabilityQuery records an availability computation outcome.
func RecordAvailabilityQuery(outcome string) {
	AvailabilityQueriesTotal.WithLabelValues(outcome).Inc()
}

// RecordTokenRefresh records a credential refresh outcome.
func RecordTokenRefresh(outcome string) {
	TokenRefreshesTotal.WithLabelValues(outcome).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
