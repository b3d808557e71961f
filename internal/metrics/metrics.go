// Package metrics provides Prometheus metrics for the sync engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Listing refresh metrics
	listingAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcellite_listing_attempts_total",
			Help: "Total number of listing attempts, including retries",
		},
	)

	listingRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcellite_listing_refreshes_total",
			Help: "Total number of listing refreshes by outcome",
		},
		[]string{"namespace", "outcome"},
	)

	listingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "arcellite_listing_refresh_duration_seconds",
			Help:    "Listing refresh duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	partitionReplacements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcellite_partition_replacements_total",
			Help: "Total number of mirror partition replacements",
		},
	)

	// Mutation metrics
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcellite_mutations_total",
			Help: "Total number of mutation calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// Upload metrics
	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "arcellite_upload_bytes_total",
			Help: "Total bytes uploaded",
		},
	)

	uploadFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcellite_upload_files_total",
			Help: "Total number of uploaded files by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordListingAttempt counts one listing attempt.
func RecordListingAttempt() {
	listingAttemptsTotal.Inc()
}

// RecordListingRefresh counts one finished refresh.
func RecordListingRefresh(namespace, outcome string, duration time.Duration) {
	listingRefreshesTotal.WithLabelValues(namespace, outcome).Inc()
	listingDuration.Observe(duration.Seconds())
}

// RecordPartitionReplacement counts one mirror partition swap.
func RecordPartitionReplacement() {
	partitionReplacements.Inc()
}

// RecordMutation counts one mutation call.
func RecordMutation(op, outcome string) {
	mutationsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordUpload counts one finished file upload.
func RecordUpload(outcome string, bytes int64) {
	uploadFilesTotal.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		uploadBytesTotal.Add(float64(bytes))
	}
}
