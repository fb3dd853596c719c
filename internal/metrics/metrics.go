package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Pipeline metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_cache_lookups_total",
			Help: "Total number of story cache lookups",
		},
		[]string{"result"},
	)

	ItemsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_items_total",
			Help: "Total number of source items seen by the ingestion stage",
		},
		[]string{"source", "status"},
	)

	StylizeCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylize_calls_total",
			Help: "Total number of caption stylization calls",
		},
		[]string{"status"},
	)

	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rank_request_duration_seconds",
			Help:    "Ranking model request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
