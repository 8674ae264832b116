// Package session holds per-session personalization state. Sessions
// are fully isolated from each other; all learned state lives here and
// nowhere else.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ausflug/ausflug/pkg/models"
)

// State is the mutable rating state of one session plus the derived
// artifacts cached for it. Liked and disliked are disjoint, insertion
// ordered ID lists.
type State struct {
	ID uuid.UUID

	mu           sync.Mutex
	liked        []int64
	disliked     []int64
	profile      []float64
	profileLabel string
	suggestions  []int64
	revision     uint64
	createdAt    time.Time
	lastSeen     time.Time
}

func newState() *State {
	now := time.Now()
	return &State{
		ID:        uuid.New(),
		createdAt: now,
		lastSeen:  now,
	}
}

// Rate applies a like (+1) or dislike (-1). A rating moves the ID into
// one list and out of the other; re-rating with the same value is a
// no-op. Unknown rating values and negative IDs are ignored. Reports
// whether the state changed.
func (s *State) Rate(activityID int64, rating int) bool {
	if activityID < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()

	switch rating {
	case models.RatingLike:
		if contains(s.liked, activityID) {
			return false
		}
		s.disliked = remove(s.disliked, activityID)
		s.liked = append(s.liked, activityID)
	case models.RatingDislike:
		if contains(s.disliked, activityID) {
			return false
		}
		s.liked = remove(s.liked, activityID)
		s.disliked = append(s.disliked, activityID)
	default:
		return false
	}
	s.revision++
	return true
}

// Reset clears all ratings and derived state.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liked = nil
	s.disliked = nil
	s.profile = nil
	s.profileLabel = ""
	s.suggestions = nil
	s.revision++
	s.lastSeen = time.Now()
}

func (s *State) Liked() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64{}, s.liked...)
}

func (s *State) Disliked() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64{}, s.disliked...)
}

// RatedSet returns liked and disliked IDs as one exclusion set.
func (s *State) RatedSet() map[int64]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rated := make(map[int64]bool, len(s.liked)+len(s.disliked))
	for _, id := range s.liked {
		rated[id] = true
	}
	for _, id := range s.disliked {
		rated[id] = true
	}
	return rated
}

func (s *State) LikeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.liked)
}

// SetDerived stores the recomputed profile, label and suggestion list
// after a rating has been applied.
func (s *State) SetDerived(profile []float64, label string, suggestions []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	s.profileLabel = label
	s.suggestions = append([]int64{}, suggestions...)
}

func (s *State) Profile() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *State) ProfileLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileLabel
}

func (s *State) Suggestions() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64{}, s.suggestions...)
}

// Revision increases on every state change; caches key on it.
func (s *State) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Touch marks the session as recently used for TTL accounting.
func (s *State) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

func (s *State) idle(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []int64, id int64) []int64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
