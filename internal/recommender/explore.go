package recommender

import (
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/pkg/models"
)

// Exploration policies.
type Policy string

const (
	// PolicyFixedRate occasionally swaps one random unrated activity
	// into the list.
	PolicyFixedRate Policy = "fixed-rate"
	// PolicyAdaptive reserves exploration slots inversely to how much
	// the session has liked so far.
	PolicyAdaptive Policy = "adaptive"
)

const DefaultExplorationRate = 0.15

// Mixer injects exploration picks into a profile-based recommendation
// list. The random source is supplied by the caller so behavior is
// reproducible under a fixed seed. One Mixer serves all sessions;
// rand.Rand is not safe for concurrent use, so every draw happens
// under the mutex.
type Mixer struct {
	policy Policy
	rate   float64
	logger *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewMixer(policy Policy, rate float64, rng *rand.Rand, logger *logrus.Logger) *Mixer {
	if rate < 0 || rate > 1 {
		rate = DefaultExplorationRate
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Mixer{policy: policy, rate: rate, rng: rng, logger: logger}
}

// Mix applies the configured exploration policy to ranked, shuffles the
// result and truncates it to n. The output never contains rated IDs or
// duplicates.
func (mx *Mixer) Mix(ranked []int64, activities []models.Activity, rated map[int64]bool, likeCount, n int) []int64 {
	if n <= 0 {
		return []int64{}
	}
	mx.mu.Lock()
	defer mx.mu.Unlock()

	var mixed []int64
	switch mx.policy {
	case PolicyAdaptive:
		mixed = mx.mixAdaptive(ranked, activities, rated, likeCount, n)
	default:
		mixed = mx.mixFixedRate(ranked, activities, rated, n)
	}

	mx.rng.Shuffle(len(mixed), func(i, j int) {
		mixed[i], mixed[j] = mixed[j], mixed[i]
	})
	if len(mixed) > n {
		mixed = mixed[:n]
	}
	return mixed
}

// mixFixedRate keeps the ranked list and, with the configured
// probability, swaps in one uniformly random unrated ID that is not
// already listed. The pick replaces the last slot when the list is
// full, otherwise it is prepended.
func (mx *Mixer) mixFixedRate(ranked []int64, activities []models.Activity, rated map[int64]bool, n int) []int64 {
	mixed := append([]int64{}, ranked...)
	if len(mixed) > n {
		mixed = mixed[:n]
	}
	if mx.rng.Float64() >= mx.rate {
		return mixed
	}

	candidates := explorationCandidates(activities, rated, mixed)
	if len(candidates) == 0 {
		return mixed
	}
	pick := candidates[mx.rng.Intn(len(candidates))]
	if len(mixed) >= n && len(mixed) > 0 {
		mixed[len(mixed)-1] = pick
	} else {
		mixed = append([]int64{pick}, mixed...)
	}
	return mixed
}

// mixAdaptive reserves slots for random exploration based on how many
// likes the session has: one like leaves room for two random picks, two
// likes for one, three or more for none.
func (mx *Mixer) mixAdaptive(ranked []int64, activities []models.Activity, rated map[int64]bool, likeCount, n int) []int64 {
	slots := adaptiveSlots(likeCount, n)
	keep := n - slots
	if keep > len(ranked) {
		keep = len(ranked)
	}
	mixed := append([]int64{}, ranked[:keep]...)

	candidates := explorationCandidates(activities, rated, mixed)
	for i := 0; i < slots && len(candidates) > 0; i++ {
		j := mx.rng.Intn(len(candidates))
		mixed = append(mixed, candidates[j])
		candidates = append(candidates[:j], candidates[j+1:]...)
	}
	return mixed
}

// adaptiveSlots is monotonically non-increasing in the like count and
// never exceeds n.
func adaptiveSlots(likeCount, n int) int {
	var slots int
	switch {
	case likeCount <= 0:
		slots = n
	case likeCount == 1:
		slots = 2
	case likeCount == 2:
		slots = 1
	default:
		slots = 0
	}
	if slots > n {
		slots = n
	}
	return slots
}

// InitialSuggestions returns up to n random unrated activity IDs for
// sessions that have no taste profile yet.
func (mx *Mixer) InitialSuggestions(activities []models.Activity, rated map[int64]bool, n int) []int64 {
	if n <= 0 {
		return []int64{}
	}
	mx.mu.Lock()
	defer mx.mu.Unlock()

	candidates := explorationCandidates(activities, rated, nil)
	mx.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// explorationCandidates lists IDs that are neither rated nor already
// selected, in table order.
func explorationCandidates(activities []models.Activity, rated map[int64]bool, selected []int64) []int64 {
	taken := make(map[int64]bool, len(selected))
	for _, id := range selected {
		taken[id] = true
	}
	candidates := make([]int64, 0, len(activities))
	for i := range activities {
		id := activities[i].ID
		if rated[id] || taken[id] {
			continue
		}
		candidates = append(candidates, id)
	}
	return candidates
}
