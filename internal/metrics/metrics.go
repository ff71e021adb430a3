// Package metrics exposes Prometheus instrumentation for the interview
// analysis engine. Collectors are registered on the default registry and
// served by the router at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks currently connected interview sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interview_active_sessions",
		Help: "Number of live interview sessions.",
	})

	// InboundMessages counts websocket messages by type.
	InboundMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_inbound_messages_total",
		Help: "Inbound websocket messages by message type.",
	}, []string{"type"})

	// AnalysisCycles counts completed analysis cycles.
	AnalysisCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_analysis_cycles_total",
		Help: "Completed transcript analysis cycles.",
	})

	// ModelCallDuration observes completion-service latency.
	ModelCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interview_model_call_duration_seconds",
		Help:    "Latency of external completion-service calls.",
		Buckets: prometheus.DefBuckets,
	})

	// ModelCallErrors counts failed completion-service calls.
	ModelCallErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_model_call_errors_total",
		Help: "Failed completion-service calls.",
	})

	// TipsGenerated counts emitted suggestions, labeled by source.
	TipsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_tips_generated_total",
		Help: "Suggestions emitted to interviewers, by source (model or fallback).",
	}, []string{"source"})

	// FlagsRaised counts emitted interview flags.
	FlagsRaised = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_flags_raised_total",
		Help: "Interview flags emitted to interviewers.",
	})
)
