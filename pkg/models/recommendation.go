package models

import (
	"time"

	"github.com/google/uuid"
)

type RecommendationResponse struct {
	SessionID   uuid.UUID `json:"session_id"`
	ActivityIDs []int64   `json:"activity_ids"`
	Count       int       `json:"count"`
	Explored    bool      `json:"explored"`
	GeneratedAt time.Time `json:"generated_at"`
	CacheHit    bool      `json:"cache_hit"`
}

type CategoryScore struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type TargetGroupScore struct {
	TargetGroup string `json:"target_group"`
	Count       int    `json:"count"`
}

// PreferenceSummary aggregates what a session has liked so far. Fields
// are omitted rather than zero-valued when no signal exists yet.
type PreferenceSummary struct {
	SessionID       uuid.UUID          `json:"session_id"`
	ProfileLabel    string             `json:"profile_label,omitempty"`
	CategoryScores  []CategoryScore    `json:"category_scores,omitempty"`
	TopTargetGroups []TargetGroupScore `json:"top_target_groups,omitempty"`
	LikedPrices     []float64          `json:"liked_prices,omitempty"`
}

type SessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
