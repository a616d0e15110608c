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
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
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

	// CompletionDuration tracks completion capability latency.
	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "Completion capability call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// ClassificationsTotal counts classifier outcomes per label set.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifications_total",
			Help: "Classifier results by label set, label and validity",
		},
		[]string{"set", "label", "valid"},
	)

	// DispatchTotal counts router dispatches.
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_total",
			Help: "Router dispatches by module and status",
		},
		[]string{"module", "status"},
	)

	// DispatchDuration tracks handler latency behind the router.
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Router handler duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"module"},
	)

	// OrchestratorRequestsTotal counts orchestrated requests by path.
	OrchestratorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_requests_total",
			Help: "Orchestrated requests by decision path and status",
		},
		[]string{"path", "status"},
	)

	// OrchestratorStepDuration tracks the duration of pipeline steps.
	OrchestratorStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orchestrator_step_duration_seconds",
			Help:    "Orchestration pipeline step duration",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"step"},
	)

	// ConversationAppendsTotal counts conversation store appends.
	ConversationAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_appends_total",
			Help: "Conversation store appends by sender and outcome",
		},
		[]string{"sender", "outcome"},
	)

	// AuditEntriesTotal counts audit log writes.
	AuditEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Audit log entries by status",
		},
		[]string{"status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCompletion records metrics for a completion call.
func RecordCompletion(provider, model, status string, duration float64, tokensIn, tokensOut int) {
	CompletionDuration.WithLabelValues(provider, status).Observe(duration)
	if model == "" {
		return
	}
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordDispatch records a router dispatch.
func RecordDispatch(module, status string, duration float64) {
	DispatchTotal.WithLabelValues(module, status).Inc()
	if duration > 0 {
		DispatchDuration.WithLabelValues(module).Observe(duration)
	}
}
