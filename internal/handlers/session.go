package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/middleware"
	"github.com/ausflug/ausflug/internal/services"
	"github.com/ausflug/ausflug/pkg/models"
)

type SessionHandler struct {
	services *services.Services
	logger   *logrus.Logger
}

func NewSessionHandler(svcs *services.Services, logger *logrus.Logger) *SessionHandler {
	return &SessionHandler{services: svcs, logger: logger}
}

// Create opens a new anonymous session and returns its token.
func (h *SessionHandler) Create(c *gin.Context) {
	state := h.services.Sessions.Create()
	token, expiresAt, err := h.services.Auth.IssueToken(state.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to issue session token")
		h.services.Sessions.Delete(state.ID)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "SESSION_CREATION_FAILED",
				"message": "Failed to create session",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, models.SessionResponse{
		SessionID: state.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Reset clears all personalization of the current session.
func (h *SessionHandler) Reset(c *gin.Context) {
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

	h.services.Recommendation.ResetSession(state)
	c.JSON(http.StatusOK, gin.H{
		"session_id": state.ID,
		"message":    "Session personalization reset",
	})
}
