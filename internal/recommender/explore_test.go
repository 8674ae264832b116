package recommender

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestMixFixedRate(t *testing.T) {
	activities := sampleActivities()

	t.Run("rate zero passes ranked list through", func(t *testing.T) {
		mx := NewMixer(PolicyFixedRate, 0, newTestRand(), nil)
		ranked := []int64{1, 2, 3}
		mixed := mx.Mix(ranked, activities, nil, 3, 3)
		assert.ElementsMatch(t, ranked, mixed)
	})

	t.Run("rate one swaps in one exploration pick", func(t *testing.T) {
		mx := NewMixer(PolicyFixedRate, 1, newTestRand(), nil)
		ranked := []int64{1, 2, 3}
		rated := map[int64]bool{1: true, 2: true, 3: true}
		mixed := mx.Mix(ranked, activities, rated, 3, 3)

		require.Len(t, mixed, 3)
		outside := 0
		for _, id := range mixed {
			if id != 1 && id != 2 && id != 3 {
				outside++
				assert.False(t, rated[id])
			}
		}
		assert.Equal(t, 1, outside)
	})

	t.Run("pick is prepended when a slot is free", func(t *testing.T) {
		mx := NewMixer(PolicyFixedRate, 1, newTestRand(), nil)
		mixed := mx.Mix([]int64{1}, activities, nil, 1, 5)
		assert.Len(t, mixed, 2)
		assert.Contains(t, mixed, int64(1))
	})

	t.Run("no candidates leaves list unchanged", func(t *testing.T) {
		two := activities[:2]
		mx := NewMixer(PolicyFixedRate, 1, newTestRand(), nil)
		rated := map[int64]bool{1: true, 2: true}
		mixed := mx.Mix([]int64{1, 2}, two, rated, 2, 2)
		assert.ElementsMatch(t, []int64{1, 2}, mixed)
	})
}

func TestMixAdaptive(t *testing.T) {
	activities := sampleActivities()
	ranked := []int64{1, 2, 3, 4, 5}

	t.Run("slots shrink as likes grow", func(t *testing.T) {
		n := 5
		assert.Equal(t, n, adaptiveSlots(0, n))
		assert.Equal(t, 2, adaptiveSlots(1, n))
		assert.Equal(t, 1, adaptiveSlots(2, n))
		assert.Equal(t, 0, adaptiveSlots(3, n))
		assert.Equal(t, 0, adaptiveSlots(7, n))
	})

	t.Run("slots capped at n", func(t *testing.T) {
		assert.Equal(t, 1, adaptiveSlots(1, 1))
	})

	t.Run("three likes disable exploration", func(t *testing.T) {
		mx := NewMixer(PolicyAdaptive, 0, newTestRand(), nil)
		mixed := mx.Mix(ranked, activities, nil, 3, 5)
		assert.ElementsMatch(t, ranked, mixed)
	})

	t.Run("one like reserves two exploration slots", func(t *testing.T) {
		mx := NewMixer(PolicyAdaptive, 0, newTestRand(), nil)
		rated := map[int64]bool{6: true}
		mixed := mx.Mix(ranked, activities, rated, 1, 5)

		require.Len(t, mixed, 5)
		kept := 0
		for _, id := range ranked[:3] {
			assert.Contains(t, mixed, id)
			kept++
		}
		assert.Equal(t, 3, kept)
		assert.NotContains(t, mixed, int64(6))
	})

	t.Run("no duplicates", func(t *testing.T) {
		mx := NewMixer(PolicyAdaptive, 0, newTestRand(), nil)
		mixed := mx.Mix(ranked[:2], activities, nil, 1, 5)
		seen := make(map[int64]bool)
		for _, id := range mixed {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
	})

	t.Run("truncated to n", func(t *testing.T) {
		mx := NewMixer(PolicyAdaptive, 0, newTestRand(), nil)
		mixed := mx.Mix(ranked, activities, nil, 1, 3)
		assert.LessOrEqual(t, len(mixed), 3)
	})

	t.Run("reproducible under a fixed seed", func(t *testing.T) {
		first := NewMixer(PolicyAdaptive, 0, newTestRand(), nil).Mix(ranked, activities, nil, 1, 5)
		second := NewMixer(PolicyAdaptive, 0, newTestRand(), nil).Mix(ranked, activities, nil, 1, 5)
		assert.Equal(t, first, second)
	})
}

// A single Mixer is shared across sessions; concurrent draws must not
// corrupt the random source.
func TestMixConcurrent(t *testing.T) {
	activities := sampleActivities()
	mx := NewMixer(PolicyAdaptive, 0, newTestRand(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				mixed := mx.Mix([]int64{1, 2, 3}, activities, nil, 1, 5)
				assert.LessOrEqual(t, len(mixed), 5)
				mx.InitialSuggestions(activities, nil, 3)
			}
		}()
	}
	wg.Wait()
}

func TestInitialSuggestions(t *testing.T) {
	activities := sampleActivities()

	t.Run("random unrated ids", func(t *testing.T) {
		mx := NewMixer(PolicyAdaptive, 0, newTestRand(), nil)
		rated := map[int64]bool{1: true, 2: true}
		ids := mx.InitialSuggestions(activities, rated, 3)

		assert.Len(t, ids, 3)
		for _, id := range ids {
			assert.False(t, rated[id])
		}
	})

	t.Run("fewer candidates than n", func(t *testing.T) {
		mx := NewMixer(PolicyAdaptive, 0, newTestRand(), nil)
		ids := mx.InitialSuggestions(activities[:2], nil, 5)
		assert.Len(t, ids, 2)
	})

	t.Run("everything rated", func(t *testing.T) {
		mx := NewMixer(PolicyAdaptive, 0, newTestRand(), nil)
		rated := make(map[int64]bool)
		for _, a := range activities {
			rated[a.ID] = true
		}
		assert.Empty(t, mx.InitialSuggestions(activities, rated, 5))
	})
}
