// Package metrics declares the Prometheus collectors recorded by the
// classification workflow and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage outcome labels.
const (
	OutcomeMatched   = "matched"
	OutcomeCorrected = "corrected"
	OutcomeFallback  = "fallback"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

var (
	// StageOutcomes counts how each narrowing stage resolved.
	StageOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_stage_outcomes_total",
			Help: "Narrowing stage resolutions by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	// OracleCalls counts oracle invocations by role and result.
	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_oracle_calls_total",
			Help: "Oracle invocations by role and result",
		},
		[]string{"role", "result"},
	)

	// OracleLatency tracks oracle call latency by role.
	OracleLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assay_oracle_latency_seconds",
			Help:    "Oracle call latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"role"},
	)

	// CorrectionsExhausted counts corrector runs that gave up.
	CorrectionsExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assay_corrections_exhausted_total",
			Help: "Answer corrections that ran out of attempts or hit an unreadable response",
		},
	)

	// Materials counts workflow runs by final status.
	Materials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_materials_total",
			Help: "Material workflow runs by final status",
		},
		[]string{"status"},
	)
)

var (
	// HTTPRequests counts API requests by method and response status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assay_http_requests_total",
			Help: "HTTP requests by method and status",
		},
		[]string{"method", "status"},
	)

	// HTTPLatency tracks API request latency by method.
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assay_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
