package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/config"
	"github.com/ausflug/ausflug/internal/middleware"
	"github.com/ausflug/ausflug/internal/services"
	"github.com/ausflug/ausflug/pkg/models"
)

const maxRecommendationCount = 50

type RecommendationHandler struct {
	recommendation *services.RecommendationService
	cfg            *config.Config
	logger         *logrus.Logger
}

func NewRecommendationHandler(recommendation *services.RecommendationService, cfg *config.Config, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{recommendation: recommendation, cfg: cfg, logger: logger}
}

// Get returns profile-based recommendations for the current session.
// Without any likes the list is empty; the suggestion flow on the
// rating endpoint covers cold sessions.
func (h *RecommendationHandler) Get(c *gin.Context) {
	state, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "SESSION_NOT_FOUND",
				"message": "No session in request context",
			},
		})
		return
	}

	count := h.cfg.Recommendation.SuggestionCount
	if countStr := c.Query("count"); countStr != "" {
		if parsed, err := strconv.Atoi(countStr); err == nil && parsed > 0 && parsed <= maxRecommendationCount {
			count = parsed
		}
	}
	explore := c.Query("explore") == "true"

	ids, cacheHit := h.recommendation.Recommendations(c.Request.Context(), state, count, explore)

	c.JSON(http.StatusOK, models.RecommendationResponse{
		SessionID:   state.ID,
		ActivityIDs: ids,
		Count:       len(ids),
		Explored:    explore,
		GeneratedAt: time.Now(),
		CacheHit:    cacheHit,
	})
}

// Suggestions returns the session's rotating suggestion list, seeding
// it with random activities for cold sessions.
func (h *RecommendationHandler) Suggestions(c *gin.Context) {
	state, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "SESSION_NOT_FOUND",
				"message": "No session in request context",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    state.ID,
		"suggestions":   h.recommendation.Suggestions(state),
		"profile_label": state.ProfileLabel(),
	})
}
