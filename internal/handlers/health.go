package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ausflug/ausflug/internal/services"
)

type HealthHandler struct {
	health *services.HealthService
	logger *logrus.Logger
}

func NewHealthHandler(health *services.HealthService, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{health: health, logger: logger}
}

func (h *HealthHandler) Get(c *gin.Context) {
	result := h.health.Check(c.Request.Context())
	status := http.StatusOK
	if result["status"] != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}
