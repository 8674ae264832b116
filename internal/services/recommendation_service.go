package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/config"
	"github.com/ausflug/ausflug/internal/messaging"
	"github.com/ausflug/ausflug/internal/recommender"
	"github.com/ausflug/ausflug/internal/session"
	"github.com/ausflug/ausflug/pkg/models"
)

// RecommendationService owns the dataset snapshot, the feature matrix
// and all per-rating recomputation. The matrix is cached under the
// dataset content hash and rebuilt only when a reload brings different
// data. Engine-level failures degrade to empty results, never errors.
type RecommendationService struct {
	cfg       *config.Config
	logger    *logrus.Logger
	sessions  *session.Store
	extractor *recommender.Extractor
	mixer     *recommender.Mixer
	publisher messaging.Publisher
	cache     *redis.Client
	cacheTTL  time.Duration

	mu         sync.RWMutex
	activities []models.Activity
	matrix     *recommender.FeatureMatrix
}

func NewRecommendationService(
	cfg *config.Config,
	logger *logrus.Logger,
	sessions *session.Store,
	publisher messaging.Publisher,
	cache *redis.Client,
) *RecommendationService {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}

	seed := cfg.Recommendation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	return &RecommendationService{
		cfg:       cfg,
		logger:    logger,
		sessions:  sessions,
		extractor: recommender.NewExtractor(cfg.Recommendation.MaxTerms, logger),
		mixer: recommender.NewMixer(
			recommender.Policy(cfg.Recommendation.ExplorationPolicy),
			cfg.Recommendation.ExplorationRate,
			rng,
			logger,
		),
		publisher: publisher,
		cache:     cache,
		cacheTTL:  cfg.Redis.CacheTTL,
	}
}

// LoadDataset swaps in a new activity snapshot and (re)builds the
// feature matrix unless the content hash matches the cached one. A
// table without any usable features is accepted; the engine then
// degrades to random suggestions and empty recommendations.
func (s *RecommendationService) LoadDataset(activities []models.Activity) error {
	hash := recommender.DatasetHash(activities)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.matrix != nil && s.matrix.DatasetHash == hash {
		matrixCacheHitsTotal.Inc()
		s.activities = activities
		s.logger.WithField("hash", hash[:12]).Debug("Feature matrix reused from cache")
		return nil
	}

	matrix, err := s.extractor.Extract(activities)
	if err != nil {
		if errors.Is(err, recommender.ErrNoFeatures) {
			s.logger.WithField("activities", len(activities)).Warn("No usable features; personalization disabled")
			s.activities = activities
			s.matrix = nil
			return nil
		}
		return fmt.Errorf("failed to build feature matrix: %w", err)
	}

	matrixBuildsTotal.Inc()
	s.activities = activities
	s.matrix = matrix
	s.logger.WithFields(logrus.Fields{
		"activities": len(activities),
		"features":   matrix.Cols(),
		"hash":       hash[:12],
	}).Info("Feature matrix built")
	return nil
}

// Activities returns the current dataset snapshot.
func (s *RecommendationService) Activities() []models.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Activity{}, s.activities...)
}

func (s *RecommendationService) snapshot() ([]models.Activity, *recommender.FeatureMatrix) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activities, s.matrix
}

// HandleRating applies a rating to the session and recomputes all
// derived state: taste profile, profile label and the suggestion list.
// The rating event is published fire-and-forget.
func (s *RecommendationService) HandleRating(ctx context.Context, st *session.State, activityID int64, rating int) models.RatingResponse {
	applied := st.Rate(activityID, rating)
	if applied {
		s.refreshDerived(st)
		ratingsTotal.WithLabelValues(ratingLabel(rating)).Inc()

		event := models.RatingEvent{
			SessionID:  st.ID,
			ActivityID: activityID,
			Rating:     rating,
			Applied:    true,
			Timestamp:  time.Now(),
		}
		if err := s.publisher.PublishRating(ctx, event); err != nil {
			s.logger.WithError(err).Warn("Rating event not published")
		}
	}

	return models.RatingResponse{
		SessionID:    st.ID,
		Applied:      applied,
		Suggestions:  st.Suggestions(),
		ProfileLabel: st.ProfileLabel(),
		LikeCount:    st.LikeCount(),
	}
}

// refreshDerived rebuilds the profile from the full like set and
// regenerates the suggestion list with the configured exploration
// policy. Without a profile the suggestions fall back to random
// unrated activities.
func (s *RecommendationService) refreshDerived(st *session.State) {
	activities, matrix := s.snapshot()
	liked := st.Liked()
	rated := st.RatedSet()
	n := s.cfg.Recommendation.SuggestionCount

	profile, ok := recommender.BuildProfile(liked, st.Disliked(), matrix, activities)

	var suggestions []int64
	if ok {
		ranked := recommender.Recommend(profile, matrix, activities, rated, n)
		suggestions = s.mixer.Mix(ranked, activities, rated, len(liked), n)
	} else {
		profile = nil
		suggestions = s.mixer.InitialSuggestions(activities, rated, n)
	}

	label := ""
	if scores, ok := recommender.CategoryScores(liked, activities); ok {
		label, _ = recommender.ProfileLabel(scores)
	}

	st.SetDerived(profile, label, suggestions)
}

// Suggestions returns the session's current suggestion list, seeding it
// with random unrated activities when the session is new.
func (s *RecommendationService) Suggestions(st *session.State) []int64 {
	if suggestions := st.Suggestions(); len(suggestions) > 0 {
		return suggestions
	}
	activities, _ := s.snapshot()
	suggestions := s.mixer.InitialSuggestions(activities, st.RatedSet(), s.cfg.Recommendation.SuggestionCount)
	st.SetDerived(st.Profile(), st.ProfileLabel(), suggestions)
	return suggestions
}

// Recommendations ranks the catalog against the session's profile and
// returns up to n unrated activity IDs. With explore set, the
// exploration mixer post-processes the list. Results are cached in
// redis keyed by session revision, so any new rating naturally
// invalidates them. Without a profile the list is empty.
func (s *RecommendationService) Recommendations(ctx context.Context, st *session.State, n int, explore bool) ([]int64, bool) {
	start := time.Now()
	defer func() {
		recommendationDuration.Observe(time.Since(start).Seconds())
	}()

	activities, matrix := s.snapshot()
	key := ""
	if matrix != nil {
		key = fmt.Sprintf("rec:%s:%d:%d:%t:%s", st.ID, st.Revision(), n, explore, matrix.DatasetHash[:12])
		if ids, ok := s.cachedIDs(ctx, key); ok {
			suggestionCacheHitsTotal.Inc()
			return ids, true
		}
	}

	profile := st.Profile()
	if profile == nil {
		return []int64{}, false
	}

	rated := st.RatedSet()
	ids := recommender.Recommend(profile, matrix, activities, rated, n)
	if explore {
		ids = s.mixer.Mix(ids, activities, rated, st.LikeCount(), n)
	}

	if key != "" {
		s.cacheIDs(ctx, key, ids)
	}
	return ids, false
}

// Preferences summarizes what the session has liked so far. Empty
// aggregates are omitted from the response.
func (s *RecommendationService) Preferences(st *session.State, includeFree bool) models.PreferenceSummary {
	activities, _ := s.snapshot()
	liked := st.Liked()

	summary := models.PreferenceSummary{SessionID: st.ID}
	scores, ok := recommender.CategoryScores(liked, activities)
	if !ok {
		return summary
	}
	summary.CategoryScores = scores
	summary.ProfileLabel, _ = recommender.ProfileLabel(scores)
	summary.TopTargetGroups, _ = recommender.TopTargetGroups(liked, activities, s.cfg.Recommendation.TopTargetGroups)
	summary.LikedPrices, _ = recommender.LikedPrices(liked, activities, includeFree)
	return summary
}

// ResetSession clears the session's personalization.
func (s *RecommendationService) ResetSession(st *session.State) {
	st.Reset()
	s.logger.WithField("session_id", st.ID).Info("Session personalization reset")
}

func (s *RecommendationService) cachedIDs(ctx context.Context, key string) ([]int64, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var ids []int64
	if err := json.Unmarshal([]byte(payload), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (s *RecommendationService) cacheIDs(ctx context.Context, key string, ids []int64) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.WithError(err).Debug("Failed to cache recommendation list")
	}
}
