package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating values accepted by the API.
const (
	RatingLike    = 1
	RatingDislike = -1
)

type RatingRequest struct {
	ActivityID int64 `json:"activity_id" binding:"required,gte=0"`
	Rating     int   `json:"rating" binding:"required,oneof=1 -1"`
}

// RatingEvent is the message published for offline analytics after a
// rating has been applied to a session.
type RatingEvent struct {
	SessionID  uuid.UUID `json:"session_id"`
	ActivityID int64     `json:"activity_id"`
	Rating     int       `json:"rating"`
	Applied    bool      `json:"applied"`
	Timestamp  time.Time `json:"timestamp"`
}

// RatingResponse reflects the session state after a rating: the
// regenerated suggestion list and the current profile label.
type RatingResponse struct {
	SessionID    uuid.UUID `json:"session_id"`
	Applied      bool      `json:"applied"`
	Suggestions  []int64   `json:"suggestions"`
	ProfileLabel string    `json:"profile_label,omitempty"`
	LikeCount    int       `json:"like_count"`
}
