package services

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ausflug/ausflug/internal/config"
	"github.com/ausflug/ausflug/internal/session"
	"github.com/ausflug/ausflug/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		Recommendation: config.RecommendationConfig{
			MaxTerms:          500,
			SuggestionCount:   5,
			ExplorationPolicy: "adaptive",
			ExplorationRate:   0.15,
			TopTargetGroups:   3,
			Seed:              1,
		},
	}
}

func testCatalog() []models.Activity {
	return []models.Activity{
		{ID: 1, Name: "River Kayaking", Description: "paddle the river rapids", Category: "Sport", TargetGroups: "Adults", Price: 45, Setting: "outdoor"},
		{ID: 2, Name: "Alpine Trail", Description: "alpine trail hike", Category: "Hiking", TargetGroups: "Adults, Families", Price: 0, Setting: "outdoor"},
		{ID: 3, Name: "Climbing Gym", Description: "indoor climbing walls", Category: "Sport", TargetGroups: "Adults, Kids", Price: 22, Setting: "indoor"},
		{ID: 4, Name: "City Food Tour", Description: "taste local food downtown", Category: "Food", TargetGroups: "Adults", Price: 60, Setting: "mixed"},
		{ID: 5, Name: "Forest Walk", Description: "quiet forest walk", Category: "Nature", TargetGroups: "Families", Price: 0, Setting: "outdoor"},
		{ID: 6, Name: "Pottery Class", Description: "shape clay on the wheel", Category: "Creative", TargetGroups: "Adults", Price: 35, Setting: "indoor"},
		{ID: 7, Name: "Lake Swim", Description: "open water swimming at the lake", Category: "Sport", TargetGroups: "Adults, Families", Price: 5, Setting: "outdoor"},
		{ID: 8, Name: "Street Market", Description: "local street food market", Category: "Food", TargetGroups: "Families", Price: 0, Setting: "outdoor"},
	}
}

func newTestService(t *testing.T) (*RecommendationService, *session.Store) {
	t.Helper()
	store := session.NewStore(0, nil)
	svc := NewRecommendationService(testConfig(), testLogger(), store, nil, nil)
	require.NoError(t, svc.LoadDataset(testCatalog()))
	return svc, store
}

func TestColdStart(t *testing.T) {
	svc, store := newTestService(t)
	st := store.Create()

	t.Run("suggestions are random unrated ids", func(t *testing.T) {
		suggestions := svc.Suggestions(st)
		assert.Len(t, suggestions, 5)
		seen := make(map[int64]bool)
		for _, id := range suggestions {
			assert.False(t, seen[id])
			seen[id] = true
		}
	})

	t.Run("recommendations are empty without a profile", func(t *testing.T) {
		ids, cacheHit := svc.Recommendations(context.Background(), st, 5, false)
		assert.Empty(t, ids)
		assert.False(t, cacheHit)
	})

	t.Run("preferences are empty", func(t *testing.T) {
		summary := svc.Preferences(st, true)
		assert.Empty(t, summary.ProfileLabel)
		assert.Empty(t, summary.CategoryScores)
	})
}

func TestHandleRating(t *testing.T) {
	t.Run("like builds profile and regenerates suggestions", func(t *testing.T) {
		svc, store := newTestService(t)
		st := store.Create()

		resp := svc.HandleRating(context.Background(), st, 1, models.RatingLike)
		assert.True(t, resp.Applied)
		assert.Equal(t, 1, resp.LikeCount)
		assert.NotEmpty(t, resp.Suggestions)
		assert.NotContains(t, resp.Suggestions, int64(1))
		assert.NotNil(t, st.Profile())
	})

	t.Run("dislike alone yields no profile", func(t *testing.T) {
		svc, store := newTestService(t)
		st := store.Create()

		resp := svc.HandleRating(context.Background(), st, 2, models.RatingDislike)
		assert.True(t, resp.Applied)
		assert.Zero(t, resp.LikeCount)
		assert.Nil(t, st.Profile())
		assert.NotContains(t, resp.Suggestions, int64(2))
	})

	t.Run("repeat rating is not applied", func(t *testing.T) {
		svc, store := newTestService(t)
		st := store.Create()

		svc.HandleRating(context.Background(), st, 1, models.RatingLike)
		resp := svc.HandleRating(context.Background(), st, 1, models.RatingLike)
		assert.False(t, resp.Applied)
	})

	t.Run("suggestions never include rated ids", func(t *testing.T) {
		svc, store := newTestService(t)
		st := store.Create()

		svc.HandleRating(context.Background(), st, 1, models.RatingLike)
		svc.HandleRating(context.Background(), st, 3, models.RatingDislike)
		resp := svc.HandleRating(context.Background(), st, 7, models.RatingLike)

		for _, id := range resp.Suggestions {
			assert.NotContains(t, []int64{1, 3, 7}, id)
		}
	})

	t.Run("profile label appears with likes", func(t *testing.T) {
		svc, store := newTestService(t)
		st := store.Create()

		resp := svc.HandleRating(context.Background(), st, 1, models.RatingLike)
		assert.Equal(t, "Sport-Fan", resp.ProfileLabel)
	})
}

// One service instance handles all sessions, so rating requests from
// different sessions draw from the same exploration source concurrently.
func TestConcurrentRatings(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	sessions := make([]*session.State, 4)
	for i := range sessions {
		sessions[i] = store.Create()
	}

	var wg sync.WaitGroup
	for _, st := range sessions {
		for _, id := range []int64{1, 3, 4} {
			wg.Add(1)
			go func(st *session.State, id int64) {
				defer wg.Done()
				svc.HandleRating(ctx, st, id, models.RatingLike)
				svc.Suggestions(st)
				svc.Recommendations(ctx, st, 5, true)
			}(st, id)
		}
	}
	wg.Wait()

	for _, st := range sessions {
		assert.Len(t, st.Liked(), 3)
		for _, id := range st.Suggestions() {
			assert.NotContains(t, []int64{1, 3, 4}, id)
		}
	}
}

func TestRecommendations(t *testing.T) {
	t.Run("bounded and disjoint from rated", func(t *testing.T) {
		svc, store := newTestService(t)
		st := store.Create()
		svc.HandleRating(context.Background(), st, 1, models.RatingLike)

		ids, _ := svc.Recommendations(context.Background(), st, 3, false)
		assert.LessOrEqual(t, len(ids), 3)
		assert.NotContains(t, ids, int64(1))
	})

	t.Run("deterministic without exploration", func(t *testing.T) {
		svc, store := newTestService(t)
		st := store.Create()
		svc.HandleRating(context.Background(), st, 1, models.RatingLike)

		first, _ := svc.Recommendations(context.Background(), st, 4, false)
		second, _ := svc.Recommendations(context.Background(), st, 4, false)
		assert.Equal(t, first, second)
	})

	t.Run("sport likes surface sport activities", func(t *testing.T) {
		svc, store := newTestService(t)
		st := store.Create()
		svc.HandleRating(context.Background(), st, 1, models.RatingLike)
		svc.HandleRating(context.Background(), st, 3, models.RatingLike)

		ids, _ := svc.Recommendations(context.Background(), st, 1, false)
		require.Len(t, ids, 1)
		assert.Equal(t, int64(7), ids[0])
	})
}

func TestPreferences(t *testing.T) {
	svc, store := newTestService(t)
	st := store.Create()
	ctx := context.Background()

	svc.HandleRating(ctx, st, 1, models.RatingLike) // Sport, 45
	svc.HandleRating(ctx, st, 3, models.RatingLike) // Sport, 22
	svc.HandleRating(ctx, st, 4, models.RatingLike) // Food, 60
	svc.HandleRating(ctx, st, 8, models.RatingLike) // Food, 0

	t.Run("category scores sorted by count", func(t *testing.T) {
		summary := svc.Preferences(st, true)
		require.NotEmpty(t, summary.CategoryScores)
		assert.Equal(t, models.CategoryScore{Category: "Food", Count: 2}, summary.CategoryScores[0])
		assert.Equal(t, models.CategoryScore{Category: "Sport", Count: 2}, summary.CategoryScores[1])
	})

	t.Run("tied categories become a combined label", func(t *testing.T) {
		summary := svc.Preferences(st, true)
		assert.Equal(t, "Food & Sport Type", summary.ProfileLabel)
	})

	t.Run("liked prices honor include-free", func(t *testing.T) {
		withFree := svc.Preferences(st, true)
		assert.Equal(t, []float64{45, 22, 60, 0}, withFree.LikedPrices)

		paidOnly := svc.Preferences(st, false)
		assert.Equal(t, []float64{45, 22, 60}, paidOnly.LikedPrices)
	})

	t.Run("top target groups", func(t *testing.T) {
		summary := svc.Preferences(st, true)
		require.NotEmpty(t, summary.TopTargetGroups)
		assert.Equal(t, "Adults", summary.TopTargetGroups[0].TargetGroup)
	})
}

func TestResetSession(t *testing.T) {
	svc, store := newTestService(t)
	st := store.Create()
	ctx := context.Background()

	svc.HandleRating(ctx, st, 1, models.RatingLike)
	require.NotNil(t, st.Profile())

	svc.ResetSession(st)
	assert.Nil(t, st.Profile())
	assert.Empty(t, st.Liked())

	ids, _ := svc.Recommendations(ctx, st, 5, false)
	assert.Empty(t, ids)
}

func TestDatasetReload(t *testing.T) {
	svc, store := newTestService(t)

	t.Run("identical reload reuses the matrix", func(t *testing.T) {
		_, before := svc.snapshot()
		require.NoError(t, svc.LoadDataset(testCatalog()))
		_, after := svc.snapshot()
		assert.Same(t, before, after)
	})

	t.Run("changed dataset rebuilds", func(t *testing.T) {
		_, before := svc.snapshot()
		changed := testCatalog()
		changed[0].Description = "whitewater rafting adventure"
		require.NoError(t, svc.LoadDataset(changed))
		_, after := svc.snapshot()
		assert.NotSame(t, before, after)
	})

	t.Run("empty dataset degrades", func(t *testing.T) {
		require.NoError(t, svc.LoadDataset(nil))
		_, matrix := svc.snapshot()
		assert.Nil(t, matrix)

		st := store.Create()
		assert.Empty(t, svc.Suggestions(st))
	})
}
