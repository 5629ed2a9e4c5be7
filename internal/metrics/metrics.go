// Package metrics declares the Prometheus collectors shared by the CLI
// and the MCP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persona_pipeline_runs_total",
			Help: "Total number of persona pipeline runs",
		},
		[]string{"status"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "persona_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// GenerationsTotal counts narrative outcomes: generated, fallback, skipped.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persona_generations_total",
			Help: "Total number of narrative generation attempts by dimension and outcome",
		},
		[]string{"dimension", "outcome"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "persona_llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"model", "status"},
	)

	RedditRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persona_reddit_requests_total",
			Help: "Total number of Reddit API requests",
		},
		[]string{"listing", "status"},
	)
)
