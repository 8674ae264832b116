package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/middleware"
	"github.com/ausflug/ausflug/internal/services"
)

type PreferenceHandler struct {
	recommendation *services.RecommendationService
	logger         *logrus.Logger
}

func NewPreferenceHandler(recommendation *services.RecommendationService, logger *logrus.Logger) *PreferenceHandler {
	return &PreferenceHandler{recommendation: recommendation, logger: logger}
}

// Get summarizes the session's liked categories, target groups and
// price range. include_free=false drops zero-priced activities from
// the price list.
func (h *PreferenceHandler) Get(c *gin.Context) {
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

	includeFree := c.DefaultQuery("include_free", "true") != "false"
	c.JSON(http.StatusOK, h.recommendation.Preferences(state, includeFree))
}
