package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_batches_generated_total",
			Help: "Total number of daily batches generated",
		},
	)

	dailyMatchesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_daily_matches_created_total",
			Help: "Total number of daily match rows created",
		},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_compatibility_scores",
			Help:    "Distribution of compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	pipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_pipeline_duration_seconds",
			Help:    "Duration of candidate pipeline runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	candidatesFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_candidates_filtered_total",
			Help: "Candidates dropped per pipeline stage",
		},
		[]string{"stage"},
	)

	staleMutations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_stale_mutations_total",
			Help: "Viewed/liked calls against expired or unknown matches",
		},
	)

	liveRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_live_refreshes_total",
			Help: "Change-driven live candidate recomputations",
		},
		[]string{"outcome"},
	)
)

func RecordCompatibilityScore(score float64) {
	compatibilityScores.Observe(score)
}

func RecordBatchGenerated(size int) {
	batchesGenerated.Inc()
	dailyMatchesCreated.Add(float64(size))
}

func RecordStaleMutation() {
	staleMutations.Inc()
}

func RecordLiveRefresh(outcome string) {
	liveRefreshes.WithLabelValues(outcome).Inc()
}
