package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/services"
	"github.com/ausflug/ausflug/internal/session"
)

const sessionContextKey = "session"

// SessionAuth validates the Bearer session token and resolves it to a
// live session. Expired or swept sessions yield 401 so the client can
// create a fresh one.
func SessionAuth(auth *services.AuthService, store *session.Store, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "MISSING_AUTHORIZATION",
					"message": "Authorization header is required",
				},
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_AUTHORIZATION_FORMAT",
					"message": "Authorization header must be in format 'Bearer <token>'",
				},
			})
			c.Abort()
			return
		}

		sessionID, err := auth.ValidateToken(tokenParts[1])
		if err != nil {
			logger.WithError(err).Warn("Invalid session token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Invalid or expired token",
				},
			})
			c.Abort()
			return
		}

		state, ok := store.Get(sessionID)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "SESSION_NOT_FOUND",
					"message": "Session expired or unknown",
				},
			})
			c.Abort()
			return
		}

		c.Set(sessionContextKey, state)
		c.Next()
	}
}

// SessionFromContext returns the session resolved by SessionAuth.
func SessionFromContext(c *gin.Context) (*session.State, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	state, ok := value.(*session.State)
	return state, ok
}
