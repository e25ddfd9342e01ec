// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_queries_total",
			Help: "Total number of queries processed by the pipeline",
		},
		[]string{"status"},
	)

	QueryStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_query_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	DocumentsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_ingested_total",
			Help: "Total number of source documents ingested",
		},
		[]string{"document_type"},
	)

	ChunksIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chunks_ingested_total",
			Help: "Total number of chunks written to the vector store",
		},
		[]string{"document_type"},
	)

	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_failures_total",
			Help: "Total number of failed generation attempts",
		},
		[]string{"strategy", "error_code"},
	)

	RetrievalResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrieval_results_returned",
			Help:    "Number of context passages returned per query",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)
)
