package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttemptsTotal counts login and registration attempts by operation and result.
	AuthAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_auth_attempts_total",
		Help: "Total authentication attempts by operation and result",
	}, []string{"operation", "result"})

	// ListingMutationsTotal counts listing create/update/delete operations.
	ListingMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_listing_mutations_total",
		Help: "Total listing mutations by operation",
	}, []string{"operation"})

	// ImageIngestDuration records the latency of image decode/resize/write.
	ImageIngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bazaar_image_ingest_duration_seconds",
		Help:    "Image intake processing latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bazaar_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// ObserveImageIngest records the latency of a single image intake.
func ObserveImageIngest(start time.Time) {
	ImageIngestDuration.Observe(time.Since(start).Seconds())
}

// RecordAuthAttempt increments the auth attempt counter.
func RecordAuthAttempt(operation string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	AuthAttemptsTotal.WithLabelValues(operation, result).Inc()
}

// RecordListingMutation increments the listing mutation counter.
func RecordListingMutation(operation string) {
	ListingMutationsTotal.WithLabelValues(operation).Inc()
}
