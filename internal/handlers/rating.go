package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/middleware"
	"github.com/ausflug/ausflug/internal/services"
	"github.com/ausflug/ausflug/pkg/models"
)

type RatingHandler struct {
	recommendation *services.RecommendationService
	logger         *logrus.Logger
}

func NewRatingHandler(recommendation *services.RecommendationService, logger *logrus.Logger) *RatingHandler {
	return &RatingHandler{recommendation: recommendation, logger: logger}
}

// Create applies a like or dislike and returns the regenerated
// suggestion list.
func (h *RatingHandler) Create(c *gin.Context) {
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

	var req models.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "rating must be 1 or -1 and activity_id must be set",
			},
		})
		return
	}

	response := h.recommendation.HandleRating(c.Request.Context(), state, req.ActivityID, req.Rating)
	c.JSON(http.StatusOK, response)
}
