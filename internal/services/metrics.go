package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ratingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ausflug_ratings_total",
		Help: "Ratings processed, labeled by rating value.",
	}, []string{"rating"})

	recommendationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ausflug_recommendation_duration_seconds",
		Help:    "Time spent generating a recommendation list.",
		Buckets: prometheus.DefBuckets,
	})

	matrixBuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ausflug_feature_matrix_builds_total",
		Help: "Feature matrix builds triggered by dataset loads.",
	})

	matrixCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ausflug_feature_matrix_cache_hits_total",
		Help: "Dataset loads answered by the content-hash matrix cache.",
	})

	suggestionCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ausflug_suggestion_cache_hits_total",
		Help: "Recommendation requests answered from the warm cache.",
	})
)

func ratingLabel(rating int) string {
	if rating > 0 {
		return "like"
	}
	return "dislike"
}
