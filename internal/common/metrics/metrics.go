// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jury_evaluations_submitted_total",
			Help: "Total number of evaluations persisted, by evaluator role",
		},
		[]string{"role"},
	)

	EvaluationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jury_evaluations_rejected_total",
			Help: "Total number of evaluation submissions rejected, by error code",
		},
		[]string{"error_code"},
	)

	DecisionsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jury_decisions_total",
			Help: "Total number of final decisions, by outcome",
		},
		[]string{"decision"},
	)

	RateLimitDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_denied_total",
			Help: "Total number of requests denied by the rate limiter",
		},
		[]string{"endpoint", "reason"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"endpoint"},
	)
)
