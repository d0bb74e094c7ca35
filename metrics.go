package partsdb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partsdb_syncs_started_total",
		Help: "Number of catalog sync runs started",
	})

	syncsSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partsdb_syncs_succeeded_total",
		Help: "Number of catalog sync runs completed successfully",
	})

	syncsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partsdb_syncs_failed_total",
		Help: "Number of catalog sync runs aborted by an error",
	})

	rowsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partsdb_rows_loaded_total",
		Help: "Catalog rows loaded across all sync runs",
	})

	bytesDownloaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "partsdb_feed_bytes_total",
		Help: "Compressed feed bytes downloaded",
	})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "partsdb_sync_duration_seconds",
		Help:    "Wall time of a full catalog sync",
		Buckets: []float64{1, 5, 10, 30, 60, 300, 600},
	})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "partsdb_search_duration_seconds",
		Help:    "Time taken to run a catalog search",
		Buckets: prometheus.DefBuckets,
	})
)
